package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"browsify-profiler/internal/config"
	"browsify-profiler/internal/features"
	"browsify-profiler/internal/fetch"
	"browsify-profiler/internal/ioformats"
	"browsify-profiler/internal/metrics"
	"browsify-profiler/internal/models"
	"browsify-profiler/internal/pipeline"
	"browsify-profiler/internal/profile"
	"browsify-profiler/internal/seeder"
	"browsify-profiler/pkg/logger"
)

type globalOpts struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:   "browsify",
		Short: "Derive a user profile from a browsing history",
		Long: `browsify reads a browsing history (CSV, NDJSON or an HTML bookmark/history
export) and derives topical interests, activity patterns, coarse demographic
guesses and risk flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (default: built-in rules)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newProfileCmd(g), newCategorizeCmd(g), newSeedCmd())
	return root
}

func (g *globalOpts) load() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, logger.New(cfg.Logging.Level), nil
}

func newProfileCmd(g *globalOpts) *cobra.Command {
	var (
		input      string
		output     string
		eventsPath string
		withEvents bool
		format     string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run the profiling pipeline and print the report as JSON",
		Example: `  browsify profile --input history.csv
  browsify profile --input https://example.com/export.ndjson --output report.json --events events.ndjson`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("missing --input")
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown --format %q (json or text)", format)
			}
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			records, err := readInput(cmd.Context(), input, timeout)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			p, err := pipeline.New(cfg, log, metrics.New(prometheus.NewRegistry()))
			if err != nil {
				return err
			}
			report, err := p.Run(records)
			if err != nil {
				return err
			}

			if eventsPath != "" {
				if err := writeEvents(eventsPath, report.Events); err != nil {
					return fmt.Errorf("write events: %w", err)
				}
			}
			if format == "text" {
				return writeText(cmd.OutOrStdout(), output, report.Profile.Insights())
			}
			if !withEvents {
				report.Events = nil
			}
			return writeJSON(cmd.OutOrStdout(), output, report)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file or http(s) URL (csv with url,timestamp columns, ndjson or html export)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output JSON file (default stdout)")
	cmd.Flags().StringVar(&eventsPath, "events", "", "also write enriched events as NDJSON to this file")
	cmd.Flags().BoolVar(&withEvents, "with-events", false, "include enriched events in the report")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json (full report) or text (profile fields only)")
	cmd.Flags().DurationVar(&timeout, "fetch-timeout", 30*time.Second, "timeout for http(s) inputs")
	return cmd
}

func newCategorizeCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize URL|DOMAIN...",
		Short: "Show the domain and category the rules assign to each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load()
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg, logger.Nop(), nil)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, arg := range args {
				host, domain, ok := features.ExtractHost(arg)
				if !ok {
					fmt.Fprintf(w, "%s\t-\t(no domain)\n", arg)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", arg, domain, p.Categorizer().Categorize(host))
			}
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	opts := seeder.DefaultOptions()
	var output string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic browsing history CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			records := seeder.Generate(opts)
			if output == "" {
				return seeder.WriteCSV(cmd.OutOrStdout(), records)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			return seeder.WriteCSV(f, records)
		},
	}
	cmd.Flags().IntVarP(&opts.Count, "count", "n", opts.Count, "number of records")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().DurationVar(&opts.Span, "span", opts.Span, "time range covered, ending now")
	cmd.Flags().Float64Var(&opts.MissingRate, "missing-rate", opts.MissingRate, "fraction of rows without a timestamp")
	cmd.Flags().Float64Var(&opts.KnownRate, "known-rate", opts.KnownRate, "fraction of rows visiting well-known sites")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV file (default stdout)")
	return cmd
}

func readInput(ctx context.Context, input string, timeout time.Duration) ([]models.RawRecord, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		client := fetch.NewHTTPClient(timeout, 5*time.Second, 64<<20)
		return client.FetchRecords(ctx, input)
	}
	return ioformats.ReadRecords(input)
}

func writeEvents(path string, events models.EventCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ioformats.WriteNDJSON(f, events)
}

func writeJSON(stdout io.Writer, path string, v any) error {
	return writeOutput(stdout, path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// writeText prints one "Name: value" line per profile field, in report order.
func writeText(stdout io.Writer, path string, insights []profile.Insight) error {
	return writeOutput(stdout, path, func(w io.Writer) error {
		for _, in := range insights {
			if _, err := fmt.Fprintf(w, "%s: %v\n", in.Name, in.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
