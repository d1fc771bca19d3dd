// Package metrics exposes prometheus/client_golang counters for task
// throughput, grounded on the teacher's dedicated health-check HTTP server
// (pkg/mcp.Server.startHealthServer, a second mux served on its own port
// rather than piggy-backing on the main listener).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter the engine emits across infrastructure and
// environment tasks.
type Registry struct {
	TasksTotal     *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	ActiveTasks    prometheus.Gauge
	registry       *prometheus.Registry
}

// NewRegistry builds a Registry bound to a fresh prometheus.Registry,
// rather than the global DefaultRegisterer, so tests can construct more
// than one without a "duplicate metrics collector" panic.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cluster_engine_tasks_total",
			Help: "Total number of infrastructure/environment tasks run, by kind and outcome.",
		}, []string{"kind", "action", "outcome"}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cluster_engine_task_duration_seconds",
			Help:    "Task duration in seconds, by kind and action.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 12), // 5s .. ~4h
		}, []string{"kind", "action"}),
		ActiveTasks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cluster_engine_active_tasks",
			Help: "Number of tasks currently running.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveTask records one completed task's outcome and duration.
func (r *Registry) ObserveTask(kind, action, outcome string, seconds float64) {
	r.TasksTotal.WithLabelValues(kind, action, outcome).Inc()
	r.TaskDuration.WithLabelValues(kind, action).Observe(seconds)
}
