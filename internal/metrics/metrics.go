// Package metrics exposes dispatch counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusMetrics struct {
	registry          prometheus.Registerer
	tasksTotal        *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	profilesProcessed prometheus.Counter
	dispatchPasses    prometheus.Counter
	pendingTasks      prometheus.Gauge
}

func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		registry: reg,
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Total number of dispatched tasks",
			},
			[]string{"status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Duration of dispatched tasks",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		profilesProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profiles_processed_total",
				Help:      "Total number of profiles processed across all passes",
			},
		),
		dispatchPasses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_passes_total",
				Help:      "Total number of dispatch passes started",
			},
		),
		pendingTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_tasks",
				Help:      "Queued tasks observed at the start of the last pass",
			},
		),
	}

	reg.MustRegister(
		m.tasksTotal,
		m.taskDuration,
		m.profilesProcessed,
		m.dispatchPasses,
		m.pendingTasks,
	)

	return m
}

func (m *PrometheusMetrics) RecordTask(status string, duration time.Duration) {
	m.tasksTotal.WithLabelValues(status).Inc()
	m.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordProfileProcessed() {
	m.profilesProcessed.Inc()
}

func (m *PrometheusMetrics) RecordPassStarted() {
	m.dispatchPasses.Inc()
}

func (m *PrometheusMetrics) SetPendingTasks(count int) {
	m.pendingTasks.Set(float64(count))
}
