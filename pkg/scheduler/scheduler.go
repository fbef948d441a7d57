package scheduler

import (
	"context"
	"time"
)

// Scheduler runs callbacks on a single background worker once their deadline has passed.
type Scheduler interface {
	// ScheduleAfter queues cb to run no earlier than delay from now.
	// It returns NilTaskID if the task was dropped because the scheduler is stopped.
	ScheduleAfter(delay time.Duration, cb Callback) TaskID

	// ScheduleAsap queues cb to run on the next poll.
	ScheduleAsap(cb Callback) TaskID

	// Ignore marks a queued task so the worker skips it when it comes due.
	Ignore(id TaskID) bool

	// Start launches the worker. Calling it more than once has no effect.
	Start()

	// Stop signals the worker to exit. It does not wait for it.
	Stop()

	// Wait blocks until the worker has exited or ctx is done.
	Wait(ctx context.Context) error

	// IsRunning reports whether the worker has been started and not stopped.
	IsRunning() bool

	// PollInterval returns the time the worker waits between drains.
	PollInterval() time.Duration

	// SetPollInterval changes the poll interval, starting with the next wait.
	SetPollInterval(d time.Duration)

	// HasPendingWork reports whether tasks are queued. The answer is advisory.
	HasPendingWork() bool
}
