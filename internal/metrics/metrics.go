// Package metrics counts run outcomes and exports them in Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one run on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	Outcomes    *prometheus.CounterVec
	EasySteps   prometheus.Histogram
	JobDuration *prometheus.HistogramVec
	FieldFills  *prometheus.CounterVec
	Ledger      prometheus.Gauge
	LastRun     prometheus.Gauge
}

// NewRecorder registers the apply-agent metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apply_agent_jobs_total",
				Help: "Jobs processed, by outcome status and application type",
			},
			[]string{"status", "type"},
		),
		EasySteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "apply_agent_easy_apply_steps",
				Help:    "Steps taken by the Easy Apply loop per job",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apply_agent_job_duration_seconds",
				Help:    "Time spent on one job",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"status"},
		),
		FieldFills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apply_agent_field_fills_total",
				Help: "Form field fill attempts by result",
			},
			[]string{"result"},
		),
		Ledger: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apply_agent_ledger_records",
				Help: "Records in the application ledger",
			},
		),
		LastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apply_agent_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// ObserveOutcome counts one terminal job outcome.
func (r *Recorder) ObserveOutcome(o types.Outcome, took time.Duration) {
	appType := string(o.Type)
	if appType == "" {
		appType = "none"
	}
	r.Outcomes.WithLabelValues(string(o.Status), appType).Inc()
	r.JobDuration.WithLabelValues(string(o.Status)).Observe(took.Seconds())
	if o.Type == types.ApplicationEasyApply && o.Steps > 0 {
		r.EasySteps.Observe(float64(o.Steps))
	}
}

// ObserveFills adds fill results from one pass.
func (r *Recorder) ObserveFills(filled, failed int) {
	r.FieldFills.WithLabelValues("filled").Add(float64(filled))
	r.FieldFills.WithLabelValues("failed").Add(float64(failed))
}

// Finish stamps the run end and ledger size.
func (r *Recorder) Finish(ledgerSize int, at time.Time) {
	r.Ledger.Set(float64(ledgerSize))
	r.LastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics for a node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
