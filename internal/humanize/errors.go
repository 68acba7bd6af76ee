package humanize

import (
	"errors"
	"fmt"
)

// Error taxonomy of the workflow. Every failure a caller can observe wraps exactly one of these.
var (
	// ErrValidation: local pre-flight rejection, nothing downstream was called.
	ErrValidation = errors.New("validation failed")
	ErrEmpty      = errors.New("text is empty")
	ErrTooShort   = errors.New("text is too short")
	ErrTooLong    = errors.New("text exceeds the character limit")

	// ErrInsufficientCredits: upstream quota exhausted or local balance below the run cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrTransport: the submission could not be made or its answer was unusable.
	ErrTransport = errors.New("provider transport failure")
	// ErrTimedOut: the poll loop ran out of attempts without an output.
	ErrTimedOut = errors.New("timed out waiting for provider output")
	// ErrLedgerUpdate: the credit decrement failed after a successful run (warning only).
	ErrLedgerUpdate = errors.New("credit ledger update failed")
	// ErrPersist: the project record could not be stored after a successful run (warning only).
	ErrPersist = errors.New("project persistence failed")
	// ErrInFlight: another run is still active for the same session.
	ErrInFlight = errors.New("a humanize run is already in progress for this session")
)

// ValidationError carries the reason and the measured length.
type ValidationError struct {
	Reason error // ErrEmpty, ErrTooShort or ErrTooLong
	Length int
	Limit  int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ErrTooShort:
		return fmt.Sprintf("%v: %d characters, minimum is %d", e.Reason, e.Length, MinChars)
	case ErrTooLong:
		return fmt.Sprintf("%v: %d characters, limit is %d", e.Reason, e.Length, e.Limit)
	default:
		return e.Reason.Error()
	}
}

// Is makes errors.Is(err, ErrValidation) true for every validation failure.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Reason }

// Code is a stable classification used in logs, metrics and HTTP bodies.
type Code string

const (
	CodeOK                  Code = "ok"
	CodeValidation          Code = "validation"
	CodeInsufficientCredits Code = "insufficient_credits"
	CodeTransport           Code = "transport"
	CodeTimedOut            Code = "timed_out"
	CodeInFlight            Code = "in_flight"
	CodeLedger              Code = "ledger_update"
	CodePersist             Code = "persist"
	CodeUnknown             Code = "unknown"
)

// Classify maps an error onto its Code. It only looks at sentinels, never at message text.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, ErrTransport):
		return CodeTransport
	case errors.Is(err, ErrTimedOut):
		return CodeTimedOut
	case errors.Is(err, ErrInFlight):
		return CodeInFlight
	case errors.Is(err, ErrLedgerUpdate):
		return CodeLedger
	case errors.Is(err, ErrPersist):
		return CodePersist
	default:
		return CodeUnknown
	}
}
