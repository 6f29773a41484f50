package sched

import (
	"errors"
	"time"
)

// A Poller is the readiness multiplexer a [Scheduler] blocks in: it waits
// until one of the given descriptors becomes ready, or until timeout
// elapses, whichever is first.
//
// A timeout of zero means a non-blocking poll; a negative timeout blocks
// until any I/O readiness (the scheduler only does this when no timers
// are pending). Poll reports the subsets of read and write that are
// ready; an empty result means the timeout elapsed.
type Poller interface {
	Poll(read, write []int, timeout time.Duration) (readable, writable []int, err error)
}

// sleepPoller is the fallback multiplexer for schedulers that never wait
// for descriptors: it can only sleep out a timeout.
type sleepPoller struct{}

func (sleepPoller) Poll(read, write []int, timeout time.Duration) ([]int, []int, error) {
	if len(read) != 0 || len(write) != 0 {
		return nil, nil, errors.New("sched: sleep poller cannot wait for descriptors")
	}
	if timeout < 0 {
		return nil, nil, errors.New("sched: sleep poller cannot block indefinitely")
	}
	time.Sleep(timeout)
	return nil, nil, nil
}
