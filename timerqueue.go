package sched

import (
	"sort"
	"time"
)

// A timerEntry is one pending sleep: a deadline, a sequence number that
// breaks ties among equal deadlines, and the task to resume.
// Canceled entries stay in the queue and are skipped lazily.
type timerEntry struct {
	deadline time.Time
	seq      uint64
	delay    time.Duration
	task     *Task
	canceled bool
}

func (e *timerEntry) less(other *timerEntry) bool {
	if !e.deadline.Equal(other.deadline) {
		return e.deadline.Before(other.deadline)
	}
	return e.seq < other.seq
}

// timerQueue keeps timer entries sorted by (deadline, seq) across two
// slices sharing one backing array, so that both Push and Pop avoid
// moving the bulk of the entries most of the time.
type timerQueue struct {
	head, tail []*timerEntry
}

func (q *timerQueue) Empty() bool {
	return len(q.head) == 0
}

// Peek returns the earliest live entry without removing it.
// Canceled entries encountered at the front are discarded.
func (q *timerQueue) Peek() (*timerEntry, bool) {
	for !q.Empty() {
		if e := q.head[0]; !e.canceled {
			return e, true
		}
		q.Pop()
	}
	return nil, false
}

func (q *timerQueue) Push(v *timerEntry) {
	headsize, tailsize := len(q.head), len(q.tail)

	n := headsize + tailsize

	i := sort.Search(n, func(i int) bool {
		if i < headsize {
			return v.less(q.head[i])
		}

		i -= headsize

		return v.less(q.tail[i])
	})

	if n == cap(q.tail) {
		s := append(q.tail[:n], nil)[:0]

		if i < headsize {
			s = append(s, q.head[:i]...)
			s = append(s, v)
			s = append(s, q.head[i:]...)
			s = append(s, q.tail...)
		} else {
			i -= headsize
			s = append(s, q.head...)
			s = append(s, q.tail[:i]...)
			s = append(s, v)
			s = append(s, q.tail[i:]...)
		}

		q.head, q.tail = s, s[:0]

		return
	}

	if headsize < cap(q.head) {
		s := q.head
		s = s[:headsize+1]
		copy(s[i+1:], s[i:])
		s[i] = v
		q.head = s
		return
	}

	if i < headsize {
		s := q.head
		u := s[headsize-1]
		copy(s[i+1:], s[i:])
		s[i] = v
		v = u
		i = headsize
	}

	i -= headsize

	s := q.tail
	s = s[:tailsize+1]
	copy(s[i+1:], s[i:])
	s[i] = v
	q.tail = s
}

func (q *timerQueue) Pop() (v *timerEntry) {
	q.head[0], v = v, q.head[0]

	if len(q.head) > 1 {
		q.head = q.head[1:]
	} else {
		q.head, q.tail = q.tail, q.tail[:0]
	}

	return v
}
