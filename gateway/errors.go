package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. The orchestrator branches on it: every
// kind except KindValidation is recovered locally.
type Kind int

const (
	// KindUnavailable covers network failures, timeouts, 5xx responses and an
	// open circuit breaker.
	KindUnavailable Kind = iota
	// KindAuthRejected means the bearer credential was invalid or expired.
	// Treated like KindUnavailable for fallback purposes.
	KindAuthRejected
	// KindValidation means the remote rejected the input. The only kind that
	// surfaces to the caller as a hard error.
	KindValidation
	// KindNotFound means the referenced entity is absent remotely.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindAuthRejected:
		return "auth_rejected"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a typed gateway failure. Fallback is a visible branch on Kind,
// never a caught panic or an untyped error string.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("gateway %s", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the failure is absorbed by the local fallback
// path. Validation failures are not: they surface to the caller.
func (e *Error) Recoverable() bool {
	return e.Kind != KindValidation
}

// AsError extracts a gateway error from an error chain.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	ok := errors.As(err, &gerr)
	return gerr, ok
}
