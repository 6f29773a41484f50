package sched

import (
	"slices"
	"time"
)

// A Queue is an unbounded FIFO whose Get operation suspends the calling
// task until an item arrives, built entirely on the park/unpark contract.
//
// Items are delivered to getters in the exact order they were queued,
// whether they pass through the buffer or are handed directly to an
// already-waiting getter. The buffer and the waiting-getter list are
// never both non-empty.
//
// The zero Queue is ready to use.
// A Queue must not be shared by more than one [Scheduler].
type Queue[T any] struct {
	items   []T
	waiting []*Task
	closed  bool
}

// queueItem is the unpark payload of a direct handoff.
type queueItem[T any] struct {
	v T
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Closed reports whether q has been closed.
func (q *Queue[T]) Closed() bool {
	return q.closed
}

// Put appends an item, or hands it directly to the earliest-waiting
// getter if there is one. It fails with [ErrQueueClosed] after Close.
//
// One should only call this method in an [Operation] function.
func (q *Queue[T]) Put(v T) error {
	if q.closed {
		return ErrQueueClosed
	}
	if len(q.waiting) != 0 {
		w := q.waiting[0]
		q.waiting = slices.Delete(q.waiting, 0, 1)
		w.Unpark(queueItem[T]{v})
		return nil
	}
	q.items = append(q.items, v)
	return nil
}

// Close marks q as closed. Buffered items may still be drained by Get;
// once the buffer is empty, getters fail with [ErrQueueClosed]. Getters
// already waiting when an empty queue is closed are all woken to fail.
//
// One should only call this method in an [Operation] function.
func (q *Queue[T]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	if len(q.items) != 0 {
		// Waiting getters and buffered items never coexist; whoever gets
		// here next will drain the buffer before observing the close.
		return
	}
	waiting := q.waiting
	q.waiting = nil
	for _, w := range waiting {
		w.Unpark(nil)
	}
}

// Get returns an [Operation] that takes the front item of q and switches
// to the Operation returned by then. A buffered item is delivered in the
// same step, without suspending. On an empty open queue the task parks
// until a matching Put or Close; on an empty closed queue then is called
// with [ErrQueueClosed] at once.
func (q *Queue[T]) Get(then func(t *Task, v T, err error) Result) Operation {
	return func(t *Task) Result {
		if len(q.items) != 0 {
			var zero T
			v := q.items[0]
			q.items[0] = zero
			q.items = slices.Delete(q.items, 0, 1)
			return then(t, v, nil)
		}
		if q.closed {
			var zero T
			return then(t, zero, ErrQueueClosed)
		}
		q.waiting = append(q.waiting, t)
		return t.Park(q.resume(then), func() { q.removeWaiter(t) })
	}
}

// GetDeadline is like [Queue.Get], but gives up after d, calling then
// with [os.ErrDeadlineExceeded]. The deadline and the queue wait cancel
// each other: whichever fires first removes the task from the loser, so
// a stale wake-up can never resume the task twice.
func (q *Queue[T]) GetDeadline(d time.Duration, then func(t *Task, v T, err error) Result) Operation {
	return func(t *Task) Result {
		if len(q.items) != 0 || q.closed {
			return q.Get(then)(t)
		}
		q.waiting = append(q.waiting, t)
		res := t.Park(q.resume(then), func() { q.removeWaiter(t) })
		t.scheduler.parkDeadline(t, d)
		return res
	}
}

// resume interprets the wake-up payload of a parked getter.
func (q *Queue[T]) resume(then func(t *Task, v T, err error) Result) Operation {
	return func(t *Task) Result {
		switch v := t.takeWake().(type) {
		case queueItem[T]:
			return then(t, v.v, nil)
		case error:
			var zero T
			return then(t, zero, v)
		default:
			// Woken by Close with nothing left to deliver.
			var zero T
			return then(t, zero, ErrQueueClosed)
		}
	}
}

func (q *Queue[T]) removeWaiter(t *Task) {
	if i := slices.Index(q.waiting, t); i != -1 {
		q.waiting = slices.Delete(q.waiting, i, i+1)
	}
}
