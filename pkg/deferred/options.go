package deferred

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source. Tests pass clock.NewMock().
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for lifecycle events and task failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPollInterval sets the initial poll interval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval.Store(d)
		}
	}
}

// WithRegisterer registers the scheduler's metrics with reg. Schedulers sharing
// a registerer share its collectors, so their values are summed; wrap reg with
// prometheus.WrapRegistererWith to tell them apart.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) {
		s.registerer = reg
	}
}

// WithResultHandler sets a function called on the worker goroutine after every execution.
// It must not block: the next due task waits for it.
func WithResultHandler(fn func(scheduler.TaskResult)) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}
