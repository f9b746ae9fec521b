// Package metrics exposes retention run outcomes to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "retentions"

// Run status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunStats is what one finished run contributes to the metrics.
type RunStats struct {
	Job         string
	Status      string
	Kept        int
	Pruned      int
	BytesPruned int64
	Failed      int // deletion errors
	At          time.Time
}

// Collector owns a private registry so the daemon endpoint and the
// textfile only carry retention metrics.
type Collector struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	entriesKept    *prometheus.GaugeVec
	entriesPruned  *prometheus.GaugeVec
	bytesPruned    *prometheus.CounterVec
	deletionErrors *prometheus.CounterVec
	lastRun        *prometheus.GaugeVec
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Retention runs by job and status.",
		}, []string{"job", "status"}),
		entriesKept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "entries_kept",
			Help:      "Entries kept by the last run of the job.",
		}, []string{"job"}),
		entriesPruned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "entries_pruned",
			Help:      "Entries selected for pruning by the last run of the job.",
		}, []string{"job"}),
		bytesPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_pruned_total",
			Help:      "Bytes freed by pruning.",
		}, []string{"job"}),
		deletionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deletion_errors_total",
			Help:      "Failed removals of pruned entries or companions.",
		}, []string{"job"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run of the job.",
		}, []string{"job"}),
	}
	reg.MustRegister(
		c.runsTotal,
		c.entriesKept,
		c.entriesPruned,
		c.bytesPruned,
		c.deletionErrors,
		c.lastRun,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRun records one finished run. Failed runs only count towards
// runs_total and the timestamp; the entry gauges keep their last good value.
func (c *Collector) ObserveRun(s RunStats) {
	if s.Status == "" {
		s.Status = StatusOK
	}
	if s.At.IsZero() {
		s.At = time.Now()
	}
	c.runsTotal.WithLabelValues(s.Job, s.Status).Inc()
	c.lastRun.WithLabelValues(s.Job).Set(float64(s.At.Unix()))
	if s.Failed > 0 {
		c.deletionErrors.WithLabelValues(s.Job).Add(float64(s.Failed))
	}
	if s.Status != StatusOK {
		return
	}
	c.entriesKept.WithLabelValues(s.Job).Set(float64(s.Kept))
	c.entriesPruned.WithLabelValues(s.Job).Set(float64(s.Pruned))
	if s.BytesPruned > 0 {
		c.bytesPruned.WithLabelValues(s.Job).Add(float64(s.BytesPruned))
	}
}
