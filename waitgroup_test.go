package sched_test

import (
	"testing"
	"time"

	"github.com/cosched/sched"
	"github.com/stretchr/testify/require"
)

func TestWaitGroup(t *testing.T) {
	var s sched.Scheduler
	var wg sched.WaitGroup

	wg.Add(2)

	var order []string
	s.Spawn(wg.Await().Then(sched.Do(func() { order = append(order, "awaited") })))
	s.Spawn(sched.Sleep(time.Millisecond).Then(sched.Do(func() {
		order = append(order, "done1")
		wg.Done()
	})))
	s.Spawn(sched.Sleep(2 * time.Millisecond).Then(sched.Do(func() {
		order = append(order, "done2")
		wg.Done()
	})))

	require.NoError(t, s.Run())
	require.Equal(t, []string{"done1", "done2", "awaited"}, order)
}

func TestWaitGroupZero(t *testing.T) {
	var s sched.Scheduler
	var wg sched.WaitGroup

	done := false
	s.Spawn(wg.Await().Then(sched.Do(func() { done = true })))

	require.NoError(t, s.Run())
	require.True(t, done, "Await on a zero counter completes immediately")
}

func TestWaitGroupNegativePanics(t *testing.T) {
	var wg sched.WaitGroup
	require.Panics(t, func() { wg.Add(-1) })
}
