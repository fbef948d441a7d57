// Package deferred implements a deadline-ordered task scheduler drained by a
// single background worker.
//
// Producers call ScheduleAfter or ScheduleAsap from any goroutine. The worker
// wakes once per poll interval, runs every task whose deadline has passed in
// deadline order, and goes back to sleep. Tasks with equal deadlines run in
// the order they were scheduled.
//
// The first scheduling call starts the worker. Stop is terminal: tasks that
// were not yet picked up are never run, and tasks scheduled afterwards are
// dropped. Pair Stop with Wait to join the worker:
//
//	s := deferred.New(deferred.WithPollInterval(500 * time.Millisecond))
//	s.ScheduleAfter(2*time.Second, flushEvents)
//	...
//	s.Stop()
//	if err := s.Wait(ctx); err != nil {
//		slog.Warn("worker did not exit in time", "error", err)
//	}
package deferred
