package sched

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// A Scheduler owns a ready queue, a timer queue and two descriptor waiter
// maps, and drives the tasks in them to completion.
//
// The zero Scheduler is ready to use. A Scheduler must not be shared by
// more than one Run call at a time; the Run loop itself is strictly
// single-threaded.
//
// Spawning is safe for concurrent use, but a Run loop blocked in its
// multiplexing call does not notice external spawns until it wakes up on
// its own. Spawn all initial tasks before calling Run; tasks spawned from
// inside an [Operation] are picked up immediately.
type Scheduler struct {
	mu      sync.Mutex
	ready   fifo
	timers  timerQueue
	readers map[int]*Task
	writers map[int]*Task
	seq     uint64
	current *Task

	poller    Poller
	now       func() time.Time
	onFailure func(error)
	failures  []error
}

// SetPoller replaces the readiness multiplexer used by [Scheduler.Run].
// By default a platform poller is used (select(2) on Unix systems).
// One should configure a Scheduler before spawning any tasks.
func (s *Scheduler) SetPoller(p Poller) {
	s.poller = p
}

// SetClock replaces the clock used for all deadline math. The default is
// [time.Now], whose monotonic reading makes deadlines immune to
// wall-clock adjustment.
// One should configure a Scheduler before spawning any tasks.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// OnTaskFailure sets up a function to receive task failures as they
// happen. Without a hook, failures are collected and returned, joined,
// from [Scheduler.Run].
func (s *Scheduler) OnTaskFailure(f func(error)) {
	s.onFailure = f
}

func (s *Scheduler) lazyInit() {
	if s.readers == nil {
		s.readers = make(map[int]*Task)
		s.writers = make(map[int]*Task)
	}
	if s.poller == nil {
		s.poller = defaultPoller()
	}
	if s.now == nil {
		s.now = time.Now
	}
}

// Spawn creates a [Task] to work on op and appends it to the ready queue.
//
// Spawn is safe for concurrent use.
func (s *Scheduler) Spawn(op Operation) {
	s.schedule(&Task{scheduler: s, op: must(op)})
}

// SpawnAfter creates a [Task] to work on op and schedules it to run no
// earlier than d from now.
func (s *Scheduler) SpawnAfter(d time.Duration, op Operation) {
	s.lazyInit()
	s.addTimer(d, &Task{scheduler: s, op: must(op)})
}

func (s *Scheduler) schedule(t *Task) {
	switch {
	case t.flag&flagEnded != 0:
		panic("sched: schedule of an ended task")
	case t.flag&flagQueued != 0:
		panic("sched: internal error: task already queued")
	}
	t.flag |= flagQueued
	s.mu.Lock()
	s.ready.Push(t)
	s.mu.Unlock()
}

func (s *Scheduler) popReady() *Task {
	s.mu.Lock()
	t := s.ready.Pop()
	s.mu.Unlock()
	t.flag &^= flagQueued
	return t
}

func (s *Scheduler) readyLen() int {
	s.mu.Lock()
	n := s.ready.Len()
	s.mu.Unlock()
	return n
}

func (s *Scheduler) addTimer(d time.Duration, t *Task) *timerEntry {
	s.seq++
	e := &timerEntry{deadline: s.now().Add(d), seq: s.seq, delay: d, task: t}
	s.timers.Push(e)
	return e
}

// parkDeadline composes a deadline with a parking: whichever fires first
// cancels the other.
func (s *Scheduler) parkDeadline(t *Task, d time.Duration) {
	t.timer = s.addTimer(d, t)
}

func (s *Scheduler) reportFailure(err error) {
	if err == nil {
		return
	}
	if s.onFailure != nil {
		s.onFailure(err)
		return
	}
	s.failures = append(s.failures, err)
}

// step runs one Operation call of t and routes the resulting suspension
// request. Switches are looped over in place; they never go through the
// ready queue.
func (s *Scheduler) step(t *Task) {
	s.current = t
	var res Result
	for {
		if err := try(func() { res = t.op(t) }); err != nil {
			res = Result{action: doFail, err: err}
		}
		t.wake = nil
		if res.op != nil {
			t.op = res.op
		}
		if res.action != doSwitch {
			break
		}
	}
	s.current = nil

	switch res.action {
	case doEnd:
		t.flag |= flagEnded
	case doFail:
		t.flag |= flagEnded
		s.reportFailure(res.err)
	case doYield:
		s.schedule(t)
	case doSleep:
		s.addTimer(res.delay, t)
	case doAwaitRead:
		if _, ok := s.readers[res.fd]; ok {
			t.flag |= flagEnded
			s.reportFailure(fmt.Errorf("read wait on descriptor %d: %w", res.fd, ErrDuplicateWaiter))
			return
		}
		s.readers[res.fd] = t
	case doAwaitWrite:
		if _, ok := s.writers[res.fd]; ok {
			t.flag |= flagEnded
			s.reportFailure(fmt.Errorf("write wait on descriptor %d: %w", res.fd, ErrDuplicateWaiter))
			return
		}
		s.writers[res.fd] = t
	case doPark:
		t.flag |= flagParked
	default:
		panic("sched: internal error: unknown action")
	}
}

// Run pops and runs tasks until the ready queue, the timer queue and both
// waiter maps are all empty.
//
// Each iteration steps exactly the tasks that were ready when the
// iteration began, then waits at most until the earliest timer deadline
// for descriptor readiness, then moves every expired timer onto the ready
// queue. Tasks parked with external owners are not the scheduler's to
// wait for; a run with nothing but parked tasks returns.
//
// Run returns the failures of all failed tasks, joined, unless an
// [Scheduler.OnTaskFailure] hook consumed them. A multiplexer error stops
// the run and is included in the returned error.
//
// Run must not be called twice at the same time.
func (s *Scheduler) Run() error {
	s.lazyInit()
	err := s.run()
	failures := s.failures
	s.failures = nil
	if err != nil {
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

func (s *Scheduler) run() error {
	for {
		for n := s.readyLen(); n > 0; n-- {
			s.step(s.popReady())
		}

		readyLeft := s.readyLen() > 0
		earliest, hasTimers := s.timers.Peek()
		hasIO := len(s.readers) != 0 || len(s.writers) != 0

		if !readyLeft && !hasTimers && !hasIO {
			return nil
		}

		var timeout time.Duration
		switch {
		case readyLeft:
			timeout = 0
		case hasTimers:
			timeout = max(earliest.deadline.Sub(s.now()), 0)
		default:
			timeout = -1 // Block until any I/O readiness.
		}

		if hasIO {
			readable, writable, err := s.poller.Poll(mapKeys(s.readers), mapKeys(s.writers), timeout)
			if err != nil {
				return fmt.Errorf("sched: poll: %w", err)
			}
			for _, fd := range readable {
				if t, ok := s.readers[fd]; ok {
					delete(s.readers, fd)
					s.schedule(t)
				}
			}
			for _, fd := range writable {
				if t, ok := s.writers[fd]; ok {
					delete(s.writers, fd)
					s.schedule(t)
				}
			}
		} else if timeout > 0 {
			if _, _, err := s.poller.Poll(nil, nil, timeout); err != nil {
				return fmt.Errorf("sched: poll: %w", err)
			}
		}

		s.expireTimers()
	}
}

func (s *Scheduler) expireTimers() {
	now := s.now()
	for {
		e, ok := s.timers.Peek()
		if !ok || e.deadline.After(now) {
			return
		}
		s.timers.Pop()
		t := e.task
		t.timer = nil
		if t.flag&flagParked != 0 {
			// A deadline composed with a parking fired first: pull the
			// task out of its owner's container, then fail the wait.
			if t.unpark != nil {
				t.unpark()
				t.unpark = nil
			}
			t.flag &^= flagParked
			t.wake = errDeadline
			s.schedule(t)
			continue
		}
		t.wake = now.Sub(e.deadline) + e.delay
		s.schedule(t)
	}
}

func mapKeys(m map[int]*Task) []int {
	if len(m) == 0 {
		return nil
	}
	fds := make([]int, 0, len(m))
	for fd := range m {
		fds = append(fds, fd)
	}
	return fds
}

// fifo is the ready queue: push at the back, pop from the front.
type fifo struct {
	out []*Task // Popped from the end.
	in  []*Task // Appended to.
}

func (q *fifo) Len() int {
	return len(q.out) + len(q.in)
}

func (q *fifo) Push(t *Task) {
	q.in = append(q.in, t)
}

func (q *fifo) Pop() *Task {
	if len(q.out) == 0 {
		for i := len(q.in) - 1; i >= 0; i-- {
			q.out = append(q.out, q.in[i])
		}
		q.in = q.in[:0]
	}
	n := len(q.out) - 1
	t := q.out[n]
	q.out[n] = nil
	q.out = q.out[:n]
	return t
}
