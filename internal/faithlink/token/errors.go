package token

import (
	"errors"
	"fmt"
)

// Kind is the failure class reported to clients in the "code" field.
type Kind string

const (
	KindMissing   Kind = "TOKEN_MISSING"
	KindExpired   Kind = "TOKEN_EXPIRED"
	KindMalformed Kind = "TOKEN_MALFORMED"
	KindInvalid   Kind = "TOKEN_INVALID"
)

// Retryable reports whether logging in again can fix the failure.
// Malformed and invalid tokens point at tampering or a client bug.
func (k Kind) Retryable() bool { return k == KindExpired }

// Error is returned by Codec.Verify.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or KindInvalid for any other error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInvalid
}

func fail(k Kind, err error) error { return &Error{Kind: k, Err: err} }
