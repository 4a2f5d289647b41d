package gateway

import (
	"errors"
	"fmt"

	"querylog/pkg/types"
)

// nativeInitError signals that the native library is unavailable, failed to
// initialize, or rejected a configuration.
type nativeInitError struct {
	msg string
	err error
}

func (e nativeInitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e nativeInitError) Unwrap() error { return e.err }

// ErrNativeInit constructs a NativeInitError; cause may be nil.
func ErrNativeInit(msg string, cause error) error { return nativeInitError{msg: msg, err: cause} }

// IsNativeInitError reports whether err indicates a missing or failed native engine.
func IsNativeInitError(err error) bool {
	var e nativeInitError
	return errors.As(err, &e)
}

// dispatchError signals that one event failed to cross the boundary.
type dispatchError struct {
	handle Handle
	kind   types.EventKind
	status int32
	msg    string
}

func (e dispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %s failed (status %d): %s", e.kind, e.handle, e.status, e.msg)
}

// ErrDispatch constructs a DispatchError.
func ErrDispatch(h Handle, kind types.EventKind, status int32, msg string) error {
	return dispatchError{handle: h, kind: kind, status: status, msg: msg}
}

// IsDispatchError reports whether err is a DispatchError.
func IsDispatchError(err error) bool {
	var e dispatchError
	return errors.As(err, &e)
}

// DispatchStatus extracts the native status code from a DispatchError.
func DispatchStatus(err error) (int32, bool) {
	var e dispatchError
	if errors.As(err, &e) {
		return e.status, true
	}
	return 0, false
}

func statusMessage(status int32) string {
	switch status {
	case StatusUnknownHandle:
		return "unknown handle"
	case StatusInternalFault:
		return "internal fault"
	case StatusBadKind:
		return "unsupported event kind"
	default:
		return "unexpected status"
	}
}
