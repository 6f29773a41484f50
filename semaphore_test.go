package sched_test

import (
	"testing"
	"time"

	"github.com/cosched/sched"
	"github.com/stretchr/testify/require"
)

func TestSemaphore(t *testing.T) {
	var s sched.Scheduler
	sema := sched.NewSemaphore(1)

	var order []string
	s.Spawn(sched.Chain(
		sema.Acquire(1),
		sched.Do(func() { order = append(order, "first") }),
		sched.Sleep(time.Millisecond),
		sched.Do(func() {
			sema.Release(1)
			order = append(order, "released")
		}),
	))
	s.Spawn(sched.Chain(
		sema.Acquire(1),
		sched.Do(func() { order = append(order, "second") }),
		sched.Do(func() { sema.Release(1) }),
	))

	require.NoError(t, s.Run())
	require.Equal(t, []string{"first", "released", "second"}, order)
}

func TestSemaphoreNoQueueJumping(t *testing.T) {
	var s sched.Scheduler
	sema := sched.NewSemaphore(10)

	// One unit is held and a heavy request waits; a later light request
	// must wait behind it even though its weight is available.
	s.Spawn(sched.Chain(sema.Acquire(1), sema.Acquire(10)))

	var acquired bool
	s.Spawn(sched.Chain(
		sema.Acquire(1),
		sched.Do(func() { acquired = true }),
	))

	require.NoError(t, s.Run())
	require.False(t, acquired, "Acquire should not succeed when there are waiters")
}

func TestSemaphoreFIFOAdmission(t *testing.T) {
	var s sched.Scheduler
	sema := sched.NewSemaphore(2)

	var order []string
	worker := func(name string) sched.Operation {
		return sched.Chain(
			sema.Acquire(1),
			sched.Do(func() { order = append(order, name+" in") }),
			sched.Sleep(time.Millisecond),
			sched.Do(func() {
				order = append(order, name+" out")
				sema.Release(1)
			}),
		)
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		s.Spawn(worker(name))
	}

	require.NoError(t, s.Run())
	require.Equal(t, []string{
		"a in", "b in",
		"a out", "b out",
		"c in", "d in",
		"c out", "d out",
	}, order)
}
