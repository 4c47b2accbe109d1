package utils

import (
	"fmt"
	"runtime/debug"
)

// PanicError is a recovered panic with the stack of the panicking goroutine.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("got panic: %v", e.Value)
}

// RecoverWithError must be deferred directly. It turns a panic into a *PanicError stored in err.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = &PanicError{Value: rv, Stack: debug.Stack()}
	}
}
