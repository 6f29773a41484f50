//go:build !unix

package sched

func defaultPoller() Poller { return sleepPoller{} }
