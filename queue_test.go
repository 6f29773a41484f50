package sched_test

import (
	"os"
	"testing"
	"time"

	"github.com/cosched/sched"
	"github.com/stretchr/testify/require"
)

// drain keeps getting from q until it reports an error, recording items
// into got and the final error into fin.
func drain[T any](q *sched.Queue[T], got *[]T, fin *error) sched.Operation {
	var op sched.Operation
	op = q.Get(func(t *sched.Task, v T, err error) sched.Result {
		if err != nil {
			if fin != nil {
				*fin = err
			}
			return t.End()
		}
		*got = append(*got, v)
		return t.Switch(op)
	})
	return op
}

func TestQueueFIFOBufferFirst(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[string]

	var got []string
	s.Spawn(sched.Do(func() {
		require.NoError(t, q.Put("a"))
		require.NoError(t, q.Put("b"))
	}))
	s.Spawn(drain(&q, &got, nil))

	require.NoError(t, s.Run())
	require.Equal(t, []string{"a", "b"}, got)
}

func TestQueueFIFOGetterFirst(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[string]

	var got []string
	s.Spawn(drain(&q, &got, nil))
	s.Spawn(sched.Do(func() {
		require.NoError(t, q.Put("a"))
		require.NoError(t, q.Put("b"))
	}))

	require.NoError(t, s.Run())
	require.Equal(t, []string{"a", "b"}, got)
}

func TestQueueCloseDrains(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[string]

	var got []string
	var fin error
	s.Spawn(sched.Do(func() {
		require.NoError(t, q.Put("x"))
		q.Close()
	}))
	s.Spawn(drain(&q, &got, &fin))

	require.NoError(t, s.Run())
	require.Equal(t, []string{"x"}, got)
	require.ErrorIs(t, fin, sched.ErrQueueClosed)
}

func TestQueueCloseEmpty(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[int]

	var fin error
	s.Spawn(sched.Do(q.Close))
	s.Spawn(drain(&q, new([]int), &fin))

	require.NoError(t, s.Run())
	require.ErrorIs(t, fin, sched.ErrQueueClosed)
}

func TestQueueCloseWakesAllGetters(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[int]

	closedSeen := 0
	getter := func() sched.Operation {
		return q.Get(func(tk *sched.Task, v int, err error) sched.Result {
			require.ErrorIs(t, err, sched.ErrQueueClosed)
			closedSeen++
			return tk.End()
		})
	}
	s.Spawn(getter())
	s.Spawn(getter())
	s.Spawn(sched.Do(q.Close))

	require.NoError(t, s.Run())
	require.Equal(t, 2, closedSeen, "each blocked getter observes the close exactly once")
}

func TestQueuePutAfterClose(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[int]

	var err error
	s.Spawn(sched.Do(func() {
		q.Close()
		err = q.Put(1)
	}))

	require.NoError(t, s.Run())
	require.ErrorIs(t, err, sched.ErrQueueClosed)
}

func TestProducerConsumer(t *testing.T) {
	// A producer of three items and a close; the consumer observes
	// exactly three items, in order, then the closed error.
	var s sched.Scheduler
	var q sched.Queue[int]

	var produce func(n int) sched.Operation
	produce = func(n int) sched.Operation {
		return func(tk *sched.Task) sched.Result {
			if n == 3 {
				q.Close()
				return tk.End()
			}
			if err := q.Put(n); err != nil {
				return tk.Fail(err)
			}
			return tk.Sleep(time.Millisecond, produce(n+1))
		}
	}

	var got []int
	var fin error
	s.Spawn(produce(0))
	s.Spawn(drain(&q, &got, &fin))

	require.NoError(t, s.Run())
	require.Equal(t, []int{0, 1, 2}, got)
	require.ErrorIs(t, fin, sched.ErrQueueClosed)
}

func TestGetDeadlineExpires(t *testing.T) {
	var s sched.Scheduler
	var q sched.Queue[int]

	var fin error
	s.Spawn(q.GetDeadline(10*time.Millisecond, func(tk *sched.Task, v int, err error) sched.Result {
		fin = err
		return tk.End()
	}))

	require.NoError(t, s.Run())
	require.ErrorIs(t, fin, os.ErrDeadlineExceeded)
}

func TestGetDeadlineDelivery(t *testing.T) {
	// Delivery before the deadline cancels the timer: the run must not
	// linger until the deadline would have fired.
	var s sched.Scheduler
	var q sched.Queue[int]

	start := time.Now()
	var got int
	var fin error
	s.Spawn(q.GetDeadline(100*time.Millisecond, func(tk *sched.Task, v int, err error) sched.Result {
		got, fin = v, err
		return tk.End()
	}))
	s.Spawn(sched.Do(func() { require.NoError(t, q.Put(7)) }))

	require.NoError(t, s.Run())
	require.NoError(t, fin)
	require.Equal(t, 7, got)
	require.Less(t, time.Since(start), 90*time.Millisecond)
}

func TestGetDeadlineStalePut(t *testing.T) {
	// A put arriving after the deadline fired must not resume the timed
	// out getter; the item stays buffered for the next get.
	var s sched.Scheduler
	var q sched.Queue[int]

	var fin error
	s.Spawn(q.GetDeadline(5*time.Millisecond, func(tk *sched.Task, v int, err error) sched.Result {
		fin = err
		return tk.End()
	}))
	s.SpawnAfter(20*time.Millisecond, sched.Do(func() { require.NoError(t, q.Put(42)) }))

	var got []int
	s.SpawnAfter(30*time.Millisecond, drain(&q, &got, nil))

	require.NoError(t, s.Run())
	require.ErrorIs(t, fin, os.ErrDeadlineExceeded)
	require.Equal(t, []int{42}, got)
	require.Zero(t, q.Len())
}
