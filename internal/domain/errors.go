package domain

import "errors"

var (
	ErrAccessDenied         = errors.New("access denied")
	ErrStaleTransition      = errors.New("stale status transition")
	ErrUnknownStatus        = errors.New("unknown status")
	ErrMalformedFrame       = errors.New("malformed frame")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrRecipientUnreachable = errors.New("recipient unreachable")
	ErrNotFound             = errors.New("not found")
	ErrChannelClosed        = errors.New("channel closed")
	ErrChannelFull          = errors.New("channel buffer full")
	ErrInvalidRequest       = errors.New("invalid request")
)

type ErrorCode string

const (
	CodeAccessDenied       ErrorCode = "access_denied"
	CodeStaleTransition    ErrorCode = "stale_transition"
	CodeInvalidStatus      ErrorCode = "invalid_status"
	CodeMalformedFrame     ErrorCode = "malformed_frame"
	CodePersistenceFailure ErrorCode = "persistence_failure"
	CodeInternal           ErrorCode = "internal_error"
)

// CodeOf maps an error to the code reported to the client in error frames.
func CodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return CodeAccessDenied
	case errors.Is(err, ErrStaleTransition):
		return CodeStaleTransition
	case errors.Is(err, ErrUnknownStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrMalformedFrame):
		return CodeMalformedFrame
	case errors.Is(err, ErrPersistenceFailure):
		return CodePersistenceFailure
	default:
		return CodeInternal
	}
}

func Retryable(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}

// Benign reports whether err only signals that a request was outdated.
func Benign(err error) bool {
	return errors.Is(err, ErrStaleTransition) || errors.Is(err, ErrUnknownStatus)
}

// Describe returns the client-facing text for err. Only malformed frame
// errors carry their details, since they describe the client's own input.
func Describe(err error) string {
	if errors.Is(err, ErrMalformedFrame) {
		return err.Error()
	}

	for _, sentinel := range []error{ErrAccessDenied, ErrStaleTransition, ErrUnknownStatus, ErrPersistenceFailure} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return "internal error"
}
