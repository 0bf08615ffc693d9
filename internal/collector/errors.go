package collector

import (
	"fmt"
)

// Kind classifies why a delivery did not succeed.
type Kind string

const (
	KindConfig     Kind = "config"
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindStatus     Kind = "status"
	KindDecode     Kind = "decode"
	KindRejected   Kind = "rejected"
)

// Error is returned by Deliver and SendServerSide.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("collector %s (http %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("collector %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause walk through Error.
func (e *Error) Cause() error { return e.Err }

func newError(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Err: err}
}
