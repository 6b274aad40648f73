// Package metrics records per-source run statistics with Prometheus
// collectors. A run is a batch job, so the registry is written to a
// node-exporter textfile instead of being served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "omgfood"

// Recorder holds the collectors for one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	sourceEvents   *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	sourceDuration *prometheus.GaugeVec
	collected      prometheus.Gauge
	lastRun        prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
	}

	r.sourceEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_events_total",
		Help:      "Food events collected per source.",
	}, []string{"source"})

	r.sourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Sources that failed to produce a listing.",
	}, []string{"source"})

	r.sourceDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Wall time spent fetching and extracting each source.",
	}, []string{"source"})

	r.collected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "collected_events",
		Help:      "Events in the last report.",
	})

	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last report was produced.",
	})

	r.registry.MustRegister(r.sourceEvents, r.sourceFailures, r.sourceDuration, r.collected, r.lastRun)
	return r
}

// SourceSucceeded records a source that returned n events
func (r *Recorder) SourceSucceeded(source string, n int, took time.Duration) {
	if r == nil {
		return
	}
	r.sourceEvents.WithLabelValues(source).Add(float64(n))
	r.sourceDuration.WithLabelValues(source).Set(took.Seconds())
}

// SourceFailed records a source that produced no listing
func (r *Recorder) SourceFailed(source string, took time.Duration) {
	if r == nil {
		return
	}
	r.sourceFailures.WithLabelValues(source).Inc()
	r.sourceDuration.WithLabelValues(source).Set(took.Seconds())
}

// RunFinished records the size of the final report
func (r *Recorder) RunFinished(collected int, at time.Time) {
	if r == nil {
		return
	}
	r.collected.Set(float64(collected))
	r.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the Prometheus text format to path
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
