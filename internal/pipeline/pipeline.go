// Package pipeline runs the profiling stages strictly in order over one in-memory
// event collection: clean, extract features, categorize, aggregate, cluster, score
// heuristics, synthesize.
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"browsify-profiler/internal/aggregate"
	"browsify-profiler/internal/classifier"
	"browsify-profiler/internal/cluster"
	"browsify-profiler/internal/config"
	"browsify-profiler/internal/features"
	"browsify-profiler/internal/ingest"
	"browsify-profiler/internal/metrics"
	"browsify-profiler/internal/models"
	"browsify-profiler/internal/profile"
	"browsify-profiler/pkg/logger"
)

const topDomainsLimit = 10

// Report is everything a run exposes to presentation.
type Report struct {
	RunID                     string                    `json:"runId"`
	GeneratedAt               time.Time                 `json:"generatedAt"`
	Ingested                  int                       `json:"ingested"`
	Skipped                   int                       `json:"skipped"`
	Duplicates                int                       `json:"duplicates,omitempty"`
	WithoutDomain             int                       `json:"withoutDomain"`
	Events                    models.EventCollection    `json:"events,omitempty"`
	InterestSummary           []models.CategoryCount    `json:"interestSummary"`
	ActivityByHour            map[int]int               `json:"activityByHour"`
	ActivityByDay             map[int]int               `json:"activityByDay"`
	SessionDurationByCategory map[string]float64        `json:"sessionDurationByCategory"`
	TopDomains                []models.DomainCount      `json:"topDomains"`
	Clustering                models.ClusterDiagnostics `json:"clustering"`
	Profile                   *profile.Profile          `json:"profile"`
}

// Pipeline holds compiled, read-only configuration. One Pipeline may serve
// concurrent runs; each run owns its own collection.
type Pipeline struct {
	cfg         config.Config
	categorizer *classifier.Categorizer
	heuristics  *classifier.Heuristics
	kmeans      cluster.KMeans
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// New validates cfg and compiles the rule tables. m may be nil.
func New(cfg config.Config, log *logger.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		cfg:         cfg,
		categorizer: classifier.New(cfg.Categories),
		heuristics: classifier.NewHeuristics(classifier.HeuristicRules{
			AddictionKeywords: cfg.AddictionKeywords,
			PrivacyKeywords:   cfg.PrivacyKeywords,
			AgeRules:          cfg.AgeRules,
			DefaultAgeGroup:   cfg.DefaultAgeGroup,
			LocationRules:     cfg.LocationRules,
			DefaultLocation:   cfg.DefaultLocation,
		}),
		kmeans: cluster.KMeans{
			K:             cfg.Clustering.K,
			Seed:          cfg.Clustering.Seed,
			MaxIterations: cfg.Clustering.MaxIterations,
			Tolerance:     cfg.Clustering.Tolerance,
		},
		log:     log,
		metrics: m,
	}, nil
}

// Categorizer exposes the compiled category rules.
func (p *Pipeline) Categorizer() *classifier.Categorizer { return p.categorizer }

// Run profiles records. It returns no report at all when synthesis fails.
func (p *Pipeline) Run(records []models.RawRecord) (*Report, error) {
	runID := uuid.NewString()
	log := p.log.With("run", runID)

	done := p.metrics.Stage("ingest")
	events, skipped := ingest.Clean(records, p.cfg.TimestampLayouts)
	duplicates := 0
	if p.cfg.Dedupe {
		events, duplicates = ingest.Dedupe(events)
	}
	done()
	p.metrics.Records(len(records), skipped)
	if skipped > 0 {
		log.Warnf("skipped %d of %d records with missing or unparsable url/timestamp", skipped, len(records))
	}

	done = p.metrics.Stage("features")
	features.Extract(events)
	done()
	withoutDomain := 0
	for _, e := range events {
		if !e.HasDomain() {
			withoutDomain++
		}
	}
	if withoutDomain > 0 {
		log.Debugf("%d events have no recognised domain", withoutDomain)
	}

	done = p.metrics.Stage("categorize")
	p.categorizer.CategorizeAll(events)
	done()

	done = p.metrics.Stage("aggregate")
	order := p.categorizer.Order()
	byHour := aggregate.ActivityByHour(events)
	byDay := aggregate.ActivityByDay(events)
	byCategory := aggregate.SessionDurationByCategory(events)
	interests := aggregate.InterestSummary(events, order)
	topDomains := aggregate.TopDomains(events, topDomainsLimit)
	done()

	done = p.metrics.Stage("cluster")
	diag := cluster.Assign(events, p.kmeans)
	done()
	p.metrics.ClusterIterations(diag.Iterations)
	if diag.Clustered > 0 && diag.K < p.kmeans.K {
		log.Warnf("only %d events to cluster, using k=%d instead of %d", diag.Clustered, diag.K, p.kmeans.K)
	}
	if !diag.Converged {
		log.Warnf("clustering did not converge within %d iterations, keeping best assignment", p.kmeans.MaxIterations)
	}

	done = p.metrics.Stage("heuristics")
	p.heuristics.Apply(events)
	done()

	done = p.metrics.Stage("synthesize")
	prof, err := profile.Synthesize(events, profile.Options{
		CategoryOrder: order,
		RiskThreshold: p.cfg.RiskThreshold,
	})
	done()
	if err != nil {
		if errors.Is(err, profile.ErrEmptyInput) {
			p.metrics.Run("empty")
		} else {
			p.metrics.Run("error")
		}
		log.Errorf("profile synthesis failed: %v", err)
		return nil, err
	}
	p.metrics.Run("ok")
	log.Infof("profiled %d events (%d skipped, %d without domain) into %d clusters",
		len(events), skipped, withoutDomain, diag.K)

	return &Report{
		RunID:                     runID,
		GeneratedAt:               time.Now().UTC(),
		Ingested:                  len(records),
		Skipped:                   skipped,
		Duplicates:                duplicates,
		WithoutDomain:             withoutDomain,
		Events:                    events,
		InterestSummary:           interests,
		ActivityByHour:            byHour,
		ActivityByDay:             byDay,
		SessionDurationByCategory: byCategory,
		TopDomains:                topDomains,
		Clustering:                diag,
		Profile:                   prof,
	}, nil
}
