package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// Callback is a unit of deferred work. A non-nil error marks the execution as
// failed; the scheduler reports it and moves on without retrying.
type Callback func() error

// Func adapts a callback that cannot fail.
func Func(fn func()) Callback {
	return func() error {
		fn()
		return nil
	}
}

// TaskID identifies a scheduled task.
type TaskID uuid.UUID

// NilTaskID is returned when a task was not queued.
var NilTaskID = TaskID(uuid.Nil)

// NewTaskID returns a random task identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// IsNil reports whether id is NilTaskID.
func (id TaskID) IsNil() bool {
	return id == NilTaskID
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText encodes the id in its canonical string form, which keeps it
// readable in JSON logs.
func (id TaskID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// TaskResult describes one execution of a task.
type TaskResult struct {
	TaskID    TaskID
	Deadline  time.Time
	StartTime time.Time
	EndTime   time.Time
	Error     error
}

// Lateness returns how long after its deadline the task started.
func (r TaskResult) Lateness() time.Duration {
	return r.StartTime.Sub(r.Deadline)
}

// Duration returns how long the callback ran.
func (r TaskResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
