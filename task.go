package sched

import "time"

type action int

const (
	_ action = iota
	doEnd
	doFail
	doYield
	doSleep
	doAwaitRead
	doAwaitWrite
	doSwitch
	doPark
)

const (
	flagEnded = 1 << iota
	flagQueued
	flagParked
)

// A Task is an execution of code, similar to a goroutine but cooperative
// and stackless.
//
// A Task is created with a function called [Operation].
// A Task's job is to complete it.
// When a [Scheduler] runs a Task, it calls the Operation function with
// the Task as the argument.
// The return value, a [Result], determines what must happen before the
// Task may run again, or whether it is done.
//
// A Task lives in at most one place at any instant: the ready queue, the
// timer queue, a waiter map, an external parking spot, or the hands of
// the run loop while it is being stepped.
type Task struct {
	scheduler *Scheduler
	op        Operation
	flag      uint8
	wake      any
	unpark    func()
	timer     *timerEntry
}

// Scheduler returns the [Scheduler] that spawned t.
func (t *Task) Scheduler() *Scheduler {
	return t.scheduler
}

// Ended reports whether t has completed or failed.
func (t *Task) Ended() bool {
	return t.flag&flagEnded != 0
}

func (t *Task) takeWake() any {
	v := t.wake
	t.wake = nil
	return v
}

// Slept reports the duration actually slept, when t has just been resumed
// from a [Task.Sleep]. It reads the wake-up payload of the current step
// and is only meaningful in the first Operation call after the wake-up.
func (t *Task) Slept() time.Duration {
	d, _ := t.wake.(time.Duration)
	return d
}

// End returns a [Result] that completes t, or, inside a [Chain], moves on
// to the next Operation.
func (t *Task) End() Result {
	return Result{action: doEnd}
}

// Fail returns a [Result] that completes t with an error.
// The error is reported to the owner of the scheduler; see
// [Scheduler.OnTaskFailure] and [Scheduler.Run].
// Fail(nil) is equivalent to End.
func (t *Task) Fail(err error) Result {
	if err == nil {
		return t.End()
	}
	return Result{action: doFail, err: err}
}

// Yield returns a [Result] that puts t back on the ready queue.
// When t is resumed, op is called; a nil op reiterates the current
// Operation.
func (t *Task) Yield(op Operation) Result {
	return Result{action: doYield, op: op}
}

// Sleep returns a [Result] that resumes t no earlier than d from now.
// When t is resumed, op is called; a nil op reiterates the current
// Operation. The duration actually slept is available from [Task.Slept].
func (t *Task) Sleep(d time.Duration, op Operation) Result {
	return Result{action: doSleep, op: op, delay: d}
}

// AwaitRead returns a [Result] that resumes t once fd is reported
// readable. When t is resumed, op is called; a nil op reiterates the
// current Operation.
//
// At most one task may wait for readability of a given descriptor;
// a second one fails with [ErrDuplicateWaiter].
func (t *Task) AwaitRead(fd int, op Operation) Result {
	return Result{action: doAwaitRead, op: op, fd: fd}
}

// AwaitWrite returns a [Result] that resumes t once fd is reported
// writable. When t is resumed, op is called; a nil op reiterates the
// current Operation.
//
// At most one task may wait for writability of a given descriptor;
// a second one fails with [ErrDuplicateWaiter].
func (t *Task) AwaitWrite(fd int, op Operation) Result {
	return Result{action: doAwaitWrite, op: op, fd: fd}
}

// Switch returns a [Result] that makes t work on op immediately, in the
// same step, without going through the ready queue.
func (t *Task) Switch(op Operation) Result {
	return Result{action: doSwitch, op: must(op)}
}

// Park returns a [Result] that removes t from the scheduler entirely.
// The caller becomes the owner of t and must eventually hand it back by
// calling [Task.Unpark]; op is then called with the unpark payload.
//
// cancel, if not nil, is called when the scheduler has to revoke the
// parking early (a composed deadline fired, see [Queue.GetDeadline]);
// it must remove t from whatever container the owner keeps it in, so
// that a stale wake-up can never resume t twice.
//
// Park panics if t is not the task currently being stepped. Blocking
// primitives only work under a running scheduler.
func (t *Task) Park(op Operation, cancel func()) Result {
	if t.scheduler == nil || t.scheduler.current != t {
		panic("sched: Park outside the running operation")
	}
	t.unpark = cancel
	return Result{action: doPark, op: op}
}

// Unpark hands a parked task back to its scheduler's ready queue,
// delivering payload as the wake-up value of the next step.
// Any deadline composed with the parking is canceled.
//
// One should only call this method in an [Operation] function.
func (t *Task) Unpark(payload any) {
	if t.flag&flagParked == 0 {
		panic("sched: Unpark of a task that is not parked")
	}
	t.flag &^= flagParked
	t.unpark = nil
	if tm := t.timer; tm != nil {
		tm.canceled = true
		t.timer = nil
	}
	t.wake = payload
	t.scheduler.schedule(t)
}

// Result is the type of the return value of an [Operation] function.
// A Result determines what next for a [Task] to do after calling an
// Operation function.
//
// A Result can be created by calling one of the methods of [Task]:
// [Task.End], [Task.Fail], [Task.Yield], [Task.Sleep], [Task.AwaitRead],
// [Task.AwaitWrite], [Task.Switch] or [Task.Park].
type Result struct {
	action action
	op     Operation
	delay  time.Duration
	fd     int
	err    error
}

// An Operation is a piece of work that a [Task] is given to do when it is
// spawned. The return value of an Operation, a [Result], determines what
// next for a Task to do.
type Operation func(t *Task) Result

// Chain returns an [Operation] that will work on each of the provided
// Operations in sequence.
// When one Operation completes, Chain works on another.
func Chain(s ...Operation) Operation {
	var op Operation
	return func(t *Task) Result {
		if op == nil {
			if len(s) == 0 {
				return t.End()
			}
			op, s = s[0], s[1:]
		}
		switch res := op(t); res.action {
		case doEnd:
			op = nil
			return Result{action: doSwitch}
		case doFail:
			return res
		default:
			if res.op != nil {
				op = res.op
				res.op = nil
			}
			return res
		}
	}
}

// Then returns an [Operation] that first works on op, then switches to
// work on next after op completes.
//
// To chain multiple Operations, use [Chain] function.
func (op Operation) Then(next Operation) Operation {
	if next == nil {
		panic("Then(nil): undefined behavior")
	}
	return func(t *Task) Result {
		switch res := op(t); res.action {
		case doEnd:
			return Result{action: doSwitch, op: next}
		case doFail:
			return res
		default:
			if res.op != nil {
				op = res.op
				res.op = nil
			}
			return res
		}
	}
}

// Do returns an [Operation] that calls f, and then completes.
func Do(f func()) Operation {
	return func(t *Task) Result {
		f()
		return t.End()
	}
}

// Sleep returns an [Operation] that sleeps for d, and then completes.
func Sleep(d time.Duration) Operation {
	return func(t *Task) Result {
		return t.Sleep(d, (*Task).End)
	}
}

// Never returns an [Operation] that never completes.
// Operations in a [Chain] after Never are never getting worked on.
func Never() Operation {
	return func(t *Task) Result {
		return t.Park((*Task).End, nil)
	}
}

// Nop returns an [Operation] that completes without doing anything.
func Nop() Operation {
	return (*Task).End
}

func must(op Operation) Operation {
	if op == nil {
		panic("sched: nil Operation")
	}
	return op
}
