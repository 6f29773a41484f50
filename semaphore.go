package sched

import "slices"

// Semaphore provides a way to bound asynchronous access to a resource.
// The callers can request access with a given weight.
//
// Note that this Semaphore type does not provide backpressure for
// spawning a lot of tasks. One should instead look for a sync
// implementation.
//
// A Semaphore must not be shared by more than one [Scheduler].
type Semaphore struct {
	size    int64
	cur     int64
	waiters []*semWaiter
}

type semWaiter struct {
	t *Task
	n int64
}

// NewSemaphore creates a new weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// Acquire returns an [Operation] that parks the task until a weight of n
// is acquired from the semaphore, and then completes.
// Waiters are admitted in FIFO order.
func (s *Semaphore) Acquire(n int64) Operation {
	if n < 0 {
		panic("sched(Semaphore): negative weight")
	}
	return func(t *Task) Result {
		// Waiters are served strictly in order: a light request queued
		// behind a heavy one waits, it does not slip past.
		if len(s.waiters) != 0 || s.size-s.cur < n {
			if n > s.size {
				return t.Park((*Task).End, nil) // Impossible to succeed.
			}
			w := &semWaiter{t: t, n: n}
			s.waiters = append(s.waiters, w)
			return t.Park((*Task).End, func() { s.removeWaiter(w) })
		}
		s.cur += n
		return t.End()
	}
}

// Release releases the semaphore with a weight of n.
//
// One should only call this method in an [Operation] function.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("sched(Semaphore): negative weight")
	}
	if s.cur >= 0 {
		s.cur -= n
	}
	if s.cur < 0 {
		panic("sched(Semaphore): released more than held")
	}
	s.notifyWaiters()
}

func (s *Semaphore) notifyWaiters() {
	i := 0
	for i < len(s.waiters) {
		w := s.waiters[i]
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		i++
		w.t.Unpark(nil)
	}
	s.waiters = slices.Delete(s.waiters, 0, i)
}

func (s *Semaphore) removeWaiter(w *semWaiter) {
	if i := slices.Index(s.waiters, w); i != -1 {
		s.waiters = slices.Delete(s.waiters, i, i+1)
	}
}
