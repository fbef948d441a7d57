package deferred

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

const metricsNamespace = "deferred"

type metrics struct {
	scheduled prometheus.Counter
	dropped   prometheus.Counter
	executed  prometheus.Counter
	failed    prometheus.Counter
	ignored   prometheus.Counter
	pending   prometheus.Gauge
	lateness  prometheus.Histogram
	duration  prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_scheduled_total",
			Help:      "Tasks accepted into the queue.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_dropped_total",
			Help:      "Tasks rejected because the scheduler was stopped or the callback was nil.",
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_executed_total",
			Help:      "Task callbacks invoked by the worker.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_failed_total",
			Help:      "Task callbacks that returned an error or panicked.",
		}),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_ignored_total",
			Help:      "Due tasks skipped because they were marked as ignored.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_pending",
			Help:      "Tasks waiting in the queue.",
		}),
		lateness: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "task_lateness_seconds",
			Help:      "Time between a task's deadline and the start of its execution.",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "task_duration_seconds",
			Help:      "Time spent executing task callbacks.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// register adds the collectors to reg. When reg already holds an identical
// collector, for instance from another scheduler, that collector is used
// instead so both schedulers report through it.
func (m *metrics) register(reg prometheus.Registerer, logger *slog.Logger) {
	m.scheduled = registerOrReuse(reg, m.scheduled, logger)
	m.dropped = registerOrReuse(reg, m.dropped, logger)
	m.executed = registerOrReuse(reg, m.executed, logger)
	m.failed = registerOrReuse(reg, m.failed, logger)
	m.ignored = registerOrReuse(reg, m.ignored, logger)
	m.pending = registerOrReuse(reg, m.pending, logger)
	m.lateness = registerOrReuse(reg, m.lateness, logger)
	m.duration = registerOrReuse(reg, m.duration, logger)
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C, logger *slog.Logger) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}

	logger.Error("failed to register scheduler metric", "error", err)
	return c
}

func (m *metrics) observe(result scheduler.TaskResult) {
	m.executed.Inc()
	if result.Error != nil {
		m.failed.Inc()
	}
	m.lateness.Observe(max(result.Lateness(), 0).Seconds())
	m.duration.Observe(result.Duration().Seconds())
}
