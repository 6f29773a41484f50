package sched

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// try calls f, converting a panic into an error that carries the panic
// value and a stack trace.
func try(f func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v, stack: debug.Stack()}
		}
	}()
	f()
	return nil
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "panic: %v", e.value)
	if len(e.stack) != 0 {
		b.WriteString("\n\n")
		b.Write(e.stack)
	}
	return b.String()
}

func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
