// Package sched is a library for single-threaded cooperative scheduling.
//
// A [Scheduler] drives many suspendable computations to completion by
// interleaving three kinds of readiness: immediate (a ready queue), timed
// (a deadline-ordered timer queue) and I/O (readable or writable file
// descriptors), using one blocking multiplexing call per loop iteration.
// One can create as many schedulers as they like; there is no global
// instance.
//
// # Tasks and Operations
//
// A [Task] is spawned with an [Operation], a plain function that does some
// work and then returns a [Result] declaring what must happen before the
// task may run again. A Result is created by calling one of the following
// methods on the Task:
//   - [Task.End] and [Task.Fail]: terminal;
//   - [Task.Yield]: go back on the ready queue (a cooperative slice
//     boundary);
//   - [Task.Sleep]: resume no earlier than a deadline;
//   - [Task.AwaitRead] and [Task.AwaitWrite]: resume once a descriptor is
//     reported ready;
//   - [Task.Switch]: work on another Operation immediately, in the same
//     step;
//   - [Task.Park]: leave the scheduler entirely and let some other party
//     (a [Queue], a [Semaphore], ...) resume the task by calling
//     [Task.Unpark].
//
// Between two such suspension points an Operation runs uninterrupted;
// exactly one task's code runs at any instant, so state shared between
// tasks of one scheduler needs no locking.
//
// Callback-style code needs no second scheduler: Spawn([Do](f)) schedules
// a plain function call now, and [Scheduler.SpawnAfter] schedules one
// later. Both styles collapse into the same run loop.
//
// # Timers
//
// Pending sleeps are ordered by (deadline, sequence). The sequence number
// is a monotonic tie-breaker: sleeps with equal deadlines resume in the
// order they were scheduled. The run loop fully drains the tasks that are
// ready at the start of an iteration before blocking, and never blocks
// past the earliest deadline, so timers cannot be starved by busy tasks.
//
// # Errors
//
// An Operation that fails, or panics, becomes a failed task. Failures are
// never dropped: they are delivered to the [Scheduler.OnTaskFailure] hook
// if one is set, and otherwise collected and returned, joined, from
// [Scheduler.Run]. The scheduler never retries a failed task; retrying is
// the task's own business.
package sched
