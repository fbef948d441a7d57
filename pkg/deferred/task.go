package deferred

import (
	"time"

	"go.uber.org/atomic"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// timedTask pairs a callback with the instant it becomes eligible to run.
type timedTask struct {
	id       scheduler.TaskID
	callback scheduler.Callback
	deadline time.Time

	// seq is assigned by the queue on insert and breaks deadline ties.
	seq uint64

	// ignored is checked by the worker right before execution.
	ignored atomic.Bool
}

func newTimedTask(cb scheduler.Callback, deadline time.Time) *timedTask {
	return &timedTask{
		id:       scheduler.NewTaskID(),
		callback: cb,
		deadline: deadline,
	}
}

// due reports whether the task may run at now.
func (t *timedTask) due(now time.Time) bool {
	return !now.Before(t.deadline)
}

// before orders tasks by deadline, then by insertion sequence.
func (t *timedTask) before(o *timedTask) bool {
	if t.deadline.Equal(o.deadline) {
		return t.seq < o.seq
	}
	return t.deadline.Before(o.deadline)
}
