package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	lastComputed  *prometheus.GaugeVec
	activeTickers *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadthlab_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"index", "status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadthlab_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadthlab_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		lastComputed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "breadthlab_last_computed_date_seconds",
				Help: "Unix time of the newest computed trading day",
			},
			[]string{"index"},
		),
		activeTickers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "breadthlab_active_tickers",
				Help: "Active tickers on the newest computed trading day",
			},
			[]string{"index"},
		),
	}
}

// RecordRun records one completed pipeline run.
func (r *Recorder) RecordRun(index, status string) {
	r.runsTotal.WithLabelValues(index, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageDuration records one stage's wall time in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordLastComputedDate records the newest trading day in the output.
func (r *Recorder) RecordLastComputedDate(index string, ts time.Time) {
	r.lastComputed.WithLabelValues(index).Set(float64(ts.Unix()))
}

// RecordActiveTickers records the universe size on the newest trading day.
func (r *Recorder) RecordActiveTickers(index string, n int) {
	r.activeTickers.WithLabelValues(index).Set(float64(n))
}
