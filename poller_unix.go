//go:build unix

package sched

import (
	"time"

	"golang.org/x/sys/unix"
)

func defaultPoller() Poller { return selectPoller{} }

// selectPoller multiplexes descriptor readiness with select(2).
type selectPoller struct{}

func (selectPoller) Poll(read, write []int, timeout time.Duration) (readable, writable []int, err error) {
	var rset, wset unix.FdSet
	for {
		rset.Zero()
		wset.Zero()
		nfd := 0
		for _, fd := range read {
			rset.Set(fd)
			nfd = max(nfd, fd+1)
		}
		for _, fd := range write {
			wset.Set(fd)
			nfd = max(nfd, fd+1)
		}

		var tv *unix.Timeval
		if timeout >= 0 {
			t := unix.NsecToTimeval(int64(timeout))
			tv = &t
		}

		n, err := unix.Select(nfd, &rset, &wset, nil, tv)
		if err == unix.EINTR {
			// Restart with the full timeout; a signal can only ever make
			// the wait longer, never shorter.
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			return nil, nil, nil
		}
		break
	}
	for _, fd := range read {
		if rset.IsSet(fd) {
			readable = append(readable, fd)
		}
	}
	for _, fd := range write {
		if wset.IsSet(fd) {
			writable = append(writable, fd)
		}
	}
	return readable, writable, nil
}
