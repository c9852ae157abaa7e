// Package metrics reports the outcome of a sync run in the Prometheus text
// format, for collection by the node exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/reconcile"
)

const namespace = "gpxsync"

// Report holds the metrics of a single sync run.
type Report struct {
	registry *prometheus.Registry

	traces    *prometheus.GaugeVec
	inventory prometheus.Gauge
	duration  prometheus.Gauge
	lastRun   prometheus.Gauge
}

// NewReport creates an empty report.
func NewReport() *Report {
	r := &Report{
		registry: prometheus.NewRegistry(),
		traces: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "traces",
				Help:      "Number of local traces by outcome of the last run",
			},
			[]string{"outcome"},
		),
		inventory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_identities",
			Help:      "Number of trace identities found on the server before the last run",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished",
		}),
	}

	r.registry.MustRegister(r.traces, r.inventory, r.duration, r.lastRun)

	// Export every outcome, even if no trace had it.
	for _, outcome := range []reconcile.Outcome{reconcile.Uploaded, reconcile.Skipped, reconcile.Errored} {
		r.traces.WithLabelValues(outcome.String())
	}
	return r
}

// Observe records the result of a run.
func (r *Report) Observe(res reconcile.Result, inventorySize int, duration time.Duration, finished time.Time) {
	r.traces.WithLabelValues(reconcile.Uploaded.String()).Set(float64(res.Uploaded))
	r.traces.WithLabelValues(reconcile.Skipped.String()).Set(float64(res.Skipped))
	r.traces.WithLabelValues(reconcile.Errored.String()).Set(float64(res.Errored))
	r.inventory.Set(float64(inventorySize))
	r.duration.Set(duration.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// Gatherer returns the registry holding the report's metrics.
func (r *Report) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile atomically writes the report to `path`.
func (r *Report) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.WithContext(err, "write metrics")
	}
	return nil
}
