package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the profiler's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	recordsIngested prometheus.Counter
	recordsSkipped  prometheus.Counter
	runs            *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	clusterIters    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "browsify",
			Name:      "records_ingested_total",
			Help:      "Raw records read from input sources",
		}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "browsify",
			Name:      "records_skipped_total",
			Help:      "Raw records dropped during cleaning (missing url or timestamp)",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "browsify",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "browsify",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage"}),
		clusterIters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "browsify",
			Name:      "cluster_iterations",
			Help:      "Lloyd iterations per clustering run",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 300},
		}),
	}
	reg.MustRegister(m.recordsIngested, m.recordsSkipped, m.runs, m.stageDuration, m.clusterIters)
	return m
}

func (m *Metrics) Records(ingested, skipped int) {
	if m == nil {
		return
	}
	m.recordsIngested.Add(float64(ingested))
	m.recordsSkipped.Add(float64(skipped))
}

// Run counts one finished pipeline run; outcome is "ok", "empty" or "error".
func (m *Metrics) Run(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// Stage returns a func that observes the time since Stage was called.
func (m *Metrics) Stage(name string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ClusterIterations(n int) {
	if m == nil {
		return
	}
	m.clusterIters.Observe(float64(n))
}
