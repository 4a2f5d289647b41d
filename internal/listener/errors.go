package listener

import (
	"errors"

	"querylog/internal/gateway"
)

// handleStateError signals use of a native handle after it was destroyed.
type handleStateError struct {
	handle gateway.Handle
	op     string
}

func (e handleStateError) Error() string {
	return e.op + ": listener handle " + e.handle.String() + " already destroyed"
}

// ErrHandleState constructs a HandleStateError.
func ErrHandleState(h gateway.Handle, op string) error { return handleStateError{handle: h, op: op} }

// IsHandleStateError reports whether err indicates use of a destroyed handle.
func IsHandleStateError(err error) bool {
	var e handleStateError
	return errors.As(err, &e)
}

// listenerCreationError wraps any failure of Factory.Create.
type listenerCreationError struct {
	factory string
	err     error
}

func (e listenerCreationError) Error() string {
	return "create listener " + e.factory + ": " + e.err.Error()
}

func (e listenerCreationError) Unwrap() error { return e.err }

// ErrListenerCreation constructs a ListenerCreationError wrapping cause.
func ErrListenerCreation(factory string, cause error) error {
	return listenerCreationError{factory: factory, err: cause}
}

// IsListenerCreationError reports whether err came from Factory.Create.
func IsListenerCreationError(err error) bool {
	var e listenerCreationError
	return errors.As(err, &e)
}
