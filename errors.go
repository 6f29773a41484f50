package sched

import (
	"errors"
	"os"
)

var (
	// ErrQueueClosed is reported by [Queue] operations once the queue is
	// closed and has no more items to deliver.
	ErrQueueClosed = errors.New("sched: queue closed")

	// ErrDuplicateWaiter fails a task that waits on a descriptor and
	// direction that already has a waiter. Only one party may own a given
	// direction of a descriptor at a time.
	ErrDuplicateWaiter = errors.New("sched: duplicate waiter for descriptor")
)

// errDeadline is the wake-up payload of a parked task whose composed
// deadline fired first.
var errDeadline error = os.ErrDeadlineExceeded
