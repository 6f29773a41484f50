//go:build linux

package sched

import (
	"io"

	"golang.org/x/sys/unix"
)

// FD is a file descriptor in nonblocking mode. Its methods build
// Operations that attempt a syscall and, on EAGAIN, suspend the task
// until the descriptor is reported ready, then retry.
type FD int

// Read returns an [Operation] that reads up to len(p) bytes into p and
// switches to the Operation returned by then. Reading zero bytes from a
// non-empty buffer request reports io.EOF.
func (fd FD) Read(p []byte, then func(t *Task, n int, err error) Result) Operation {
	var op Operation
	op = func(t *Task) Result {
		n, err := unix.Read(int(fd), p)
		switch {
		case err == unix.EAGAIN:
			return t.AwaitRead(int(fd), op)
		case err != nil:
			return then(t, 0, err)
		case n == 0 && len(p) > 0:
			return then(t, 0, io.EOF)
		}
		return then(t, n, nil)
	}
	return op
}

// Write returns an [Operation] that writes the bytes of p and switches
// to the Operation returned by then. Like write(2), it may write fewer
// than len(p) bytes; n reports how many were written.
func (fd FD) Write(p []byte, then func(t *Task, n int, err error) Result) Operation {
	var op Operation
	op = func(t *Task) Result {
		n, err := unix.Write(int(fd), p)
		if err == unix.EAGAIN {
			return t.AwaitWrite(int(fd), op)
		}
		if err != nil {
			return then(t, 0, err)
		}
		return then(t, n, nil)
	}
	return op
}

// Accept returns an [Operation] that accepts one connection on a
// listening descriptor and switches to the Operation returned by then.
// The accepted descriptor is put in nonblocking mode.
func (fd FD) Accept(then func(t *Task, conn FD, err error) Result) Operation {
	var op Operation
	op = func(t *Task) Result {
		nfd, _, err := unix.Accept4(int(fd), unix.SOCK_NONBLOCK)
		if err == unix.EAGAIN {
			return t.AwaitRead(int(fd), op)
		}
		if err != nil {
			return then(t, -1, err)
		}
		return then(t, FD(nfd), nil)
	}
	return op
}
