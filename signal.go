package sched

import "slices"

// Signal is a broadcast wakeup point.
//
// Calling the Notify method of a Signal, in an [Operation] function,
// resumes every [Task] parked in Await, in the order they arrived.
//
// A Signal must not be shared by more than one [Scheduler].
type Signal struct {
	waiting []*Task
}

// Await returns an [Operation] that parks the task until the next call
// of Notify, and then completes.
func (s *Signal) Await() Operation {
	return func(t *Task) Result {
		s.waiting = append(s.waiting, t)
		return t.Park((*Task).End, func() { s.removeWaiter(t) })
	}
}

// Notify resumes every [Task] parked in Await.
//
// One should only call this method in an [Operation] function.
func (s *Signal) Notify() {
	waiting := s.waiting
	s.waiting = nil
	for _, t := range waiting {
		t.Unpark(nil)
	}
}

func (s *Signal) removeWaiter(t *Task) {
	if i := slices.Index(s.waiting, t); i != -1 {
		s.waiting = slices.Delete(s.waiting, i, i+1)
	}
}
