package codec

import "errors"

// encodingError reports that a payload could not be produced.
type encodingError struct {
	what string
	err  error
}

func (e encodingError) Error() string {
	if e.err == nil {
		return "encoding " + e.what
	}
	return "encoding " + e.what + ": " + e.err.Error()
}

func (e encodingError) Unwrap() error { return e.err }

// ErrEncoding constructs an EncodingError for the named value.
func ErrEncoding(what string, err error) error { return encodingError{what: what, err: err} }

// IsEncodingError reports whether err (or anything it wraps) is an EncodingError.
func IsEncodingError(err error) bool {
	var e encodingError
	return errors.As(err, &e)
}
