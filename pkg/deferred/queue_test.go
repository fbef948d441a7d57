package deferred

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

func noop() error { return nil }

func TestQueueExtractDue(t *testing.T) {
	cl := clock.NewMock()
	q := newTaskQueue()
	now := cl.Now()

	first := newTimedTask(noop, now)
	last := newTimedTask(noop, now.Add(2*time.Second))
	middle := newTimedTask(noop, now.Add(1*time.Second))
	q.Insert(first)
	q.Insert(last)
	q.Insert(middle)

	task, ok := q.ExtractDue(cl.Now())
	require.True(t, ok)
	assert.Same(t, first, task)

	_, ok = q.ExtractDue(cl.Now())
	assert.False(t, ok, "no other task is due yet")
	assert.Equal(t, 2, q.Len())

	cl.Add(2 * time.Second)

	task, ok = q.ExtractDue(cl.Now())
	require.True(t, ok)
	assert.Same(t, middle, task)

	task, ok = q.ExtractDue(cl.Now())
	require.True(t, ok)
	assert.Same(t, last, task)

	_, ok = q.ExtractDue(cl.Now())
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

func TestQueueExtractDueOnEmptyQueue(t *testing.T) {
	q := newTaskQueue()

	task, ok := q.ExtractDue(time.Now())
	assert.False(t, ok)
	assert.Nil(t, task)
	assert.True(t, q.IsEmpty())
}

func TestQueueEqualDeadlinesKeepInsertionOrder(t *testing.T) {
	q := newTaskQueue()
	deadline := time.Unix(1000, 0)

	var inserted []*timedTask
	for range 20 {
		task := newTimedTask(noop, deadline)
		inserted = append(inserted, task)
		q.Insert(task)
	}

	for i, want := range inserted {
		got, ok := q.ExtractDue(deadline)
		require.True(t, ok)
		assert.Same(t, want, got, "task %d out of order", i)
	}
}

func TestQueueIgnore(t *testing.T) {
	q := newTaskQueue()
	now := time.Unix(1000, 0)

	kept := newTimedTask(noop, now)
	ignored := newTimedTask(noop, now)
	q.Insert(kept)
	q.Insert(ignored)

	assert.True(t, q.Ignore(ignored.id))
	assert.False(t, q.Ignore(scheduler.NewTaskID()), "unknown ids are not found")
	assert.Equal(t, 2, q.Len(), "ignoring does not remove the task")

	task, ok := q.ExtractDue(now)
	require.True(t, ok)
	assert.False(t, task.ignored.Load())

	task, ok = q.ExtractDue(now)
	require.True(t, ok)
	assert.True(t, task.ignored.Load())

	assert.False(t, q.Ignore(ignored.id), "extracted tasks can no longer be ignored")
}

func TestQueueConcurrentInsert(t *testing.T) {
	const (
		producers = 50
		perWorker = 40
	)

	q := newTaskQueue()
	base := time.Unix(1000, 0)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func() {
			defer wg.Done()
			for i := range perWorker {
				offset := time.Duration((p*perWorker+i)%97) * time.Millisecond
				q.Insert(newTimedTask(noop, base.Add(offset)))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, producers*perWorker, q.Len())

	seen := make(map[uint64]bool)
	var prev *timedTask
	for {
		task, ok := q.ExtractDue(base.Add(time.Hour))
		if !ok {
			break
		}
		if prev != nil {
			assert.True(t, prev.before(task), "tasks must come out in (deadline, seq) order")
		}
		assert.False(t, seen[task.seq], "sequence numbers are unique")
		seen[task.seq] = true
		prev = task
	}

	assert.Len(t, seen, producers*perWorker)
	assert.True(t, q.IsEmpty())
}

func TestQueueInsertIf(t *testing.T) {
	q := newTaskQueue()
	now := time.Unix(1000, 0)

	assert.False(t, q.InsertIf(newTimedTask(noop, now), func() bool { return false }))
	assert.True(t, q.IsEmpty(), "rejected tasks are not queued")

	assert.True(t, q.InsertIf(newTimedTask(noop, now), func() bool { return true }))
	assert.True(t, q.InsertIf(newTimedTask(noop, now), nil))
	assert.Equal(t, 2, q.Len())
}
