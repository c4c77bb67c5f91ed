package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"browsify-profiler/internal/config"
	"browsify-profiler/internal/fetch"
	"browsify-profiler/internal/ioformats"
	"browsify-profiler/internal/metrics"
	"browsify-profiler/internal/models"
	"browsify-profiler/internal/pipeline"
	"browsify-profiler/internal/profile"
	"browsify-profiler/pkg/logger"
)

type profileReq struct {
	Events        []models.RawRecord `json:"events"`
	IncludeEvents bool               `json:"includeEvents"`
}

type fetchReq struct {
	URL           string `json:"url"`
	IncludeEvents bool   `json:"includeEvents"`
}

type batchReq struct {
	Histories []struct {
		ID     string             `json:"id"`
		Events []models.RawRecord `json:"events"`
	} `json:"histories"`
}

type server struct {
	pipe         *pipeline.Pipeline
	client       *fetch.HTTPClient
	log          *logger.Logger
	maxUpload    int64
	fetchTimeout time.Duration
}

func main() {
	cfgPath := flag.String("config", "", "YAML config file (default: built-in rules)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	l := logger.New(cfg.Logging.Level)
	defer func() { _ = l.Sync() }()

	fetchTimeout, err := time.ParseDuration(cfg.Server.FetchTimeout)
	if err != nil {
		l.Errorf("invalid server.fetch_timeout %q: %v", cfg.Server.FetchTimeout, err)
		os.Exit(2)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipe, err := pipeline.New(cfg, l, metrics.New(reg))
	if err != nil {
		l.Errorf("pipeline: %v", err)
		os.Exit(2)
	}

	s := &server{
		pipe:         pipe,
		client:       fetch.NewHTTPClient(fetchTimeout, 5*time.Second, cfg.Server.MaxUploadMB<<20),
		log:          l,
		maxUpload:    cfg.Server.MaxUploadMB << 20,
		fetchTimeout: fetchTimeout,
	}

	addr := cfg.Server.Addr
	srv := &http.Server{
		Addr:         addr,
		Handler:      logRequest(l, s.routes(reg)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func (s *server) routes(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// POST /profile  { "events": [{"url": "...", "timestamp": "..."}] }
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req profileReq
		if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUpload)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		s.respond(w, req.Events, req.IncludeEvents)
	})

	// POST /profile/upload (multipart file=...)
	mux.HandleFunc("/profile/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart parse error"})
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file part 'file' required"})
			return
		}
		defer f.Close()

		records, err := ioformats.DecodeRecords(f, hdr.Header.Get("Content-Type"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.respond(w, records, r.FormValue("includeEvents") == "true")
	})

	// POST /profile/fetch  { "url": "https://..." }
	mux.HandleFunc("/profile/fetch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req fetchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.fetchTimeout)
		defer cancel()
		records, err := s.client.FetchRecords(ctx, req.URL)
		if errors.Is(err, fetch.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		s.respond(w, records, req.IncludeEvents)
	})

	// POST /profile/batch  { "histories": [{"id": "...", "events": [...]}] }
	mux.HandleFunc("/profile/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req batchReq
		if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUpload)).Decode(&req); err != nil || len(req.Histories) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		type out struct {
			ID     string           `json:"id"`
			Result *pipeline.Report `json:"result,omitempty"`
			Error  string           `json:"error,omitempty"`
		}
		results := make([]out, len(req.Histories))

		// bounded concurrency; every run owns its own collection
		sem := make(chan struct{}, 4)
		done := make(chan int, len(req.Histories))
		for i, h := range req.Histories {
			i, h := i, h
			sem <- struct{}{} // acquire
			go func() {
				defer func() { <-sem; done <- i }()
				report, err := s.pipe.Run(h.Events)
				if err != nil {
					results[i] = out{ID: h.ID, Error: err.Error()}
					return
				}
				report.Events = nil
				results[i] = out{ID: h.ID, Result: report}
			}()
		}
		for range req.Histories {
			<-done
		}
		writeJSON(w, http.StatusOK, results)
	})

	return mux
}

func (s *server) respond(w http.ResponseWriter, records []models.RawRecord, includeEvents bool) {
	report, err := s.pipe.Run(records)
	if errors.Is(err, profile.ErrEmptyInput) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !includeEvents {
		report.Events = nil
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
