package deferred

import (
	"container/heap"
	"sync"
	"time"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

// taskQueue is a min-heap of tasks guarded by a single mutex.
// The mutex is only held for heap operations, never while a callback runs.
type taskQueue struct {
	mu    sync.Mutex
	tasks taskHeap
	seq   uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	heap.Init(&q.tasks)
	return q
}

// Insert adds a task to the heap and stamps it with the next sequence number.
func (q *taskQueue) Insert(task *timedTask) {
	q.InsertIf(task, nil)
}

// InsertIf inserts task only if accept, evaluated under the queue lock, returns
// true. A nil accept always inserts.
func (q *taskQueue) InsertIf(task *timedTask, accept func() bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if accept != nil && !accept() {
		return false
	}

	q.seq++
	task.seq = q.seq
	heap.Push(&q.tasks, task)
	return true
}

// withLock runs fn while holding the queue lock.
func (q *taskQueue) withLock(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn()
}

// ExtractDue removes and returns the earliest task if its deadline is at or before now.
// It returns false when the queue is empty or the earliest task is not due yet.
func (q *taskQueue) ExtractDue(now time.Time) (*timedTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tasks.Len() == 0 || !q.tasks[0].due(now) {
		return nil, false
	}

	return heap.Pop(&q.tasks).(*timedTask), true
}

// Ignore marks the queued task with the given id as ignored.
// It returns false if no such task is queued.
func (q *taskQueue) Ignore(id scheduler.TaskID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.id == id {
			task.ignored.Store(true)
			return true
		}
	}
	return false
}

// Len returns the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}

// IsEmpty reports whether the queue holds no tasks.
func (q *taskQueue) IsEmpty() bool {
	return q.Len() == 0
}
