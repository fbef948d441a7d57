package deferred

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// DefaultPollInterval is the time the worker waits between drains unless configured otherwise.
const DefaultPollInterval = 1 * time.Second

type state int32

const (
	stateNotStarted state = iota
	stateRunning
	stateStopped
)

func (st state) String() string {
	switch st {
	case stateNotStarted:
		return "not_started"
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Scheduler queues callbacks by deadline and runs them on one background goroutine.
type Scheduler struct {
	queue      *taskQueue
	clock      Clock
	logger     *slog.Logger
	metrics    *metrics
	registerer prometheus.Registerer
	onResult   func(scheduler.TaskResult)

	pollInterval atomic.Duration
	state        atomic.Int32

	// stop is closed once by Stop; done is closed when the worker exits
	// (or by Stop when the worker was never started).
	stop chan struct{}
	done chan struct{}
}

// New creates a Scheduler. The worker is not started until the first call to
// Start, ScheduleAfter or ScheduleAsap.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:   newTaskQueue(),
		clock:   clock.New(),
		logger:  slog.Default(),
		metrics: newMetrics(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.pollInterval.Store(DefaultPollInterval)

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.registerer != nil {
		s.metrics.register(s.registerer, s.logger)
	}

	return s
}

// ScheduleAfter queues cb to run once delay has elapsed. Negative delays are treated as zero.
// The callback runs no earlier than its deadline and, on an idle worker, at most one poll
// interval after it. Once the scheduler is stopped the task is dropped and NilTaskID is returned.
func (s *Scheduler) ScheduleAfter(delay time.Duration, cb scheduler.Callback) scheduler.TaskID {
	if cb == nil {
		s.metrics.dropped.Inc()
		s.logger.Warn("dropping task with nil callback")
		return scheduler.NilTaskID
	}

	s.Start()

	id, ok := s.enqueue(max(delay, 0), cb)
	if !ok {
		s.metrics.dropped.Inc()
		s.logger.Debug("scheduler stopped, dropping task", "delay", delay)
		return scheduler.NilTaskID
	}
	return id
}

// ScheduleAsap queues cb to run on the next poll.
func (s *Scheduler) ScheduleAsap(cb scheduler.Callback) scheduler.TaskID {
	return s.ScheduleAfter(0, cb)
}

// enqueue inserts the task unless the scheduler is stopped. The state is read
// under the queue lock, which Stop also holds while switching state, so no
// task is queued once Stop has returned.
func (s *Scheduler) enqueue(delay time.Duration, cb scheduler.Callback) (scheduler.TaskID, bool) {
	task := newTimedTask(cb, s.clock.Now().Add(delay))
	if !s.queue.InsertIf(task, s.accepting) {
		return scheduler.NilTaskID, false
	}
	s.metrics.scheduled.Inc()
	s.metrics.pending.Inc()
	return task.id, true
}

func (s *Scheduler) accepting() bool {
	return s.loadState() != stateStopped
}

// Ignore marks a queued task so the worker skips it when its deadline arrives.
// It returns false if the task already ran, was already extracted, or was never queued.
func (s *Scheduler) Ignore(id scheduler.TaskID) bool {
	if id.IsNil() {
		return false
	}
	return s.queue.Ignore(id)
}

// Start launches the worker goroutine. Only the first call has an effect, and
// calling Start after Stop does nothing.
func (s *Scheduler) Start() {
	if !s.state.CompareAndSwap(int32(stateNotStarted), int32(stateRunning)) {
		return
	}

	s.logger.Info("starting deferred task scheduler", "poll_interval", s.PollInterval())
	go s.run()
}

// Stop signals the worker to exit and returns immediately. A task that is
// executing finishes; queued tasks are never run. Stop may be called any
// number of times, including before Start.
func (s *Scheduler) Stop() {
	var prev state
	s.queue.withLock(func() {
		prev = state(s.state.Swap(int32(stateStopped)))
	})
	if prev == stateStopped {
		return
	}

	close(s.stop)
	if prev == stateNotStarted {
		close(s.done)
	}

	s.logger.Info("stopping deferred task scheduler",
		"previous_state", prev.String(),
		"pending_tasks", s.queue.Len(),
	)
}

// Wait blocks until the worker goroutine has exited or ctx is done, in which case
// ctx.Err() is returned. It returns nil right away if the worker was never started.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.loadState() == stateNotStarted {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the worker has been started and Stop has not been called.
func (s *Scheduler) IsRunning() bool {
	return s.loadState() == stateRunning
}

// PollInterval returns the time the worker waits between drains.
func (s *Scheduler) PollInterval() time.Duration {
	return s.pollInterval.Load()
}

// SetPollInterval changes the poll interval. The worker picks it up on its next wait.
// Non-positive values are ignored.
func (s *Scheduler) SetPollInterval(d time.Duration) {
	if d <= 0 {
		s.logger.Warn("ignoring non-positive poll interval", "poll_interval", d)
		return
	}
	s.pollInterval.Store(d)
}

// HasPendingWork reports whether tasks are queued. The result may be stale by the time it is read.
func (s *Scheduler) HasPendingWork() bool {
	return !s.queue.IsEmpty()
}

func (s *Scheduler) loadState() state {
	return state(s.state.Load())
}

var _ scheduler.Scheduler = (*Scheduler)(nil)
