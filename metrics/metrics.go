// ABOUTME: Prometheus metrics for the queue and reconciliation engine
// ABOUTME: Tracks queue depth, drain outcomes, reconcile latency, and connectivity
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	QueueDepth       prometheus.Gauge
	Online           prometheus.Gauge
	DrainApplied     prometheus.Counter
	DrainFailed      prometheus.Counter
	DrainDead        prometheus.Counter
	SubmitSaved      prometheus.Counter
	SubmitQueued     prometheus.Counter
	SubmitRejected   prometheus.Counter
	ReconcileLatency prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fieldsync_queue_depth"})
	online := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fieldsync_online"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_drain_applied_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_drain_failed_total"})
	dead := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_drain_dead_total"})
	saved := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_submit_saved_total"})
	queued := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_submit_queued_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldsync_submit_rejected_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldsync_reconcile_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(queueDepth, online, applied, failed, dead, saved, queued, rejected, latency)
	return &Registry{
		reg:              r,
		QueueDepth:       queueDepth,
		Online:           online,
		DrainApplied:     applied,
		DrainFailed:      failed,
		DrainDead:        dead,
		SubmitSaved:      saved,
		SubmitQueued:     queued,
		SubmitRejected:   rejected,
		ReconcileLatency: latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
