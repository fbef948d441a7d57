package deferred

import (
	"fmt"
	"runtime/debug"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// run is the worker loop: wait one poll interval, drain due tasks, repeat until stopped.
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		if s.loadState() == stateStopped || !s.sleep() {
			s.logger.Info("deferred task scheduler stopped", "pending_tasks", s.queue.Len())
			return
		}

		s.drain()
	}
}

// sleep waits for the current poll interval. It returns false if Stop was called meanwhile.
func (s *Scheduler) sleep() bool {
	timer := s.clock.Timer(s.PollInterval())
	select {
	case <-s.stop:
		timer.Stop()
		return false
	case <-timer.C:
		return true
	}
}

// drain executes every task that is due, in deadline order. Stop is checked
// before each extraction so no task starts once it has been observed.
func (s *Scheduler) drain() {
	for s.loadState() != stateStopped {
		task, ok := s.queue.ExtractDue(s.clock.Now())
		if !ok {
			return
		}
		s.metrics.pending.Dec()

		if task.ignored.Load() {
			s.metrics.ignored.Inc()
			s.logger.Debug("skipping ignored task", "task_id", task.id)
			continue
		}

		s.execute(task)
	}
}

// execute runs a single task and reports the outcome. Failures never reach the producer.
func (s *Scheduler) execute(task *timedTask) {
	result := scheduler.TaskResult{
		TaskID:    task.id,
		Deadline:  task.deadline,
		StartTime: s.clock.Now(),
	}
	result.Error = invoke(task.callback)
	result.EndTime = s.clock.Now()

	s.metrics.observe(result)

	if result.Error != nil {
		s.logger.Error("error executing task",
			"task_id", task.id,
			"lateness_microseconds", result.Lateness().Microseconds(),
			"error", result.Error,
		)
	} else {
		s.logger.Debug("task completed",
			"task_id", task.id,
			"duration_microseconds", result.Duration().Microseconds(),
		)
	}

	s.report(result)
}

// invoke calls cb, converting a panic into a *PanicError.
func invoke(cb scheduler.Callback) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return cb()
}

// report passes result to the result handler, if any. A panicking handler is logged, not propagated.
func (s *Scheduler) report(result scheduler.TaskResult) {
	if s.onResult == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("result handler panicked",
				"task_id", result.TaskID,
				"error", fmt.Sprintf("%v", p),
			)
		}
	}()
	s.onResult(result)
}
