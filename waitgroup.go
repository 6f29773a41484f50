package sched

import "slices"

// A WaitGroup is a counter that parks tasks until it reaches zero.
//
// Calling the Add or Done method of a WaitGroup, in an [Operation]
// function, updates the counter and, when the counter becomes zero,
// resumes every [Task] parked in Await.
//
// A WaitGroup must not be shared by more than one [Scheduler].
type WaitGroup struct {
	n       int
	waiting []*Task
}

// Add adds delta, which may be negative, to the [WaitGroup] counter.
// If the [WaitGroup] counter becomes zero, Add resumes every [Task]
// parked in Await.
// If the [WaitGroup] counter is negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	wg.n += delta
	if wg.n < 0 {
		panic("sched(WaitGroup): negative counter")
	}
	if wg.n == 0 && delta != 0 {
		waiting := wg.waiting
		wg.waiting = nil
		for _, t := range waiting {
			t.Unpark(nil)
		}
	}
}

// Done decrements the [WaitGroup] counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Await returns an [Operation] that parks the task until the [WaitGroup]
// counter becomes zero, and then completes.
func (wg *WaitGroup) Await() Operation {
	return func(t *Task) Result {
		if wg.n == 0 {
			return t.End()
		}
		wg.waiting = append(wg.waiting, t)
		return t.Park((*Task).End, func() { wg.removeWaiter(t) })
	}
}

func (wg *WaitGroup) removeWaiter(t *Task) {
	if i := slices.Index(wg.waiting, t); i != -1 {
		wg.waiting = slices.Delete(wg.waiting, i, i+1)
	}
}
