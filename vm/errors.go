package vm

import (
	"errors"
	"fmt"
)

// ErrArity is wrapped by every argument-count error from a native method.
var ErrArity = errors.New("wrong number of arguments")

// ArityError reports a native method call that returned NoValue.
type ArityError struct {
	Method string
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: %v (got %d)", e.Method, ErrArity, e.Got)
}

func (e *ArityError) Unwrap() error {
	return ErrArity
}
