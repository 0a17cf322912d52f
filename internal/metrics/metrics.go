package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"radiocorpus/internal/corpus"
	"radiocorpus/internal/pipeline"
)

const namespace = "radiocorpus"

// Recorder holds gauges on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runTotals    *prometheus.GaugeVec
	runDuration  prometheus.Gauge
	runTimestamp prometheus.Gauge
	runSuccess   prometheus.Gauge
	filterTotals *prometheus.GaugeVec
}

// NewRecorder registers the radiocorpus gauges on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runTotals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "build", Name: "total", Help: "Totals of the last build run by counter."},
			[]string{"counter"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "build", Name: "duration_seconds", Help: "Wall time of the last build run."},
		),
		runTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "build", Name: "last_run_timestamp_seconds", Help: "Unix time the last build run finished."},
		),
		runSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "build", Name: "last_run_success", Help: "1 if the last build run finished without a fatal error."},
		),
		filterTotals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "filter", Name: "records", Help: "Records seen by the last filter run by outcome."},
			[]string{"outcome"},
		),
	}
	r.registry.MustRegister(r.runTotals, r.runDuration, r.runTimestamp, r.runSuccess, r.filterTotals)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RecordRun stores the totals of a finished build run.
func (r *Recorder) RecordRun(summary pipeline.Summary, finished time.Time, runErr error) {
	for _, row := range summary.Rows() {
		r.runTotals.WithLabelValues(row.Key).Set(float64(row.Value))
	}
	r.runDuration.Set(summary.Duration.Seconds())
	r.runTimestamp.Set(float64(finished.Unix()))
	if runErr == nil {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
}

// RecordFilter stores the outcome counts of a filter run.
func (r *Recorder) RecordFilter(stats corpus.FilterStats) {
	r.filterTotals.WithLabelValues("total").Set(float64(stats.Total))
	r.filterTotals.WithLabelValues("kept").Set(float64(stats.Kept))
	r.filterTotals.WithLabelValues("gibberish").Set(float64(stats.Gibberish))
	r.filterTotals.WithLabelValues("conversational").Set(float64(stats.Conversational))
	r.filterTotals.WithLabelValues("malformed").Set(float64(stats.Malformed))
}

// WriteTextfile atomically writes the registry to path. An empty path is a
// no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
