package engine

import (
	"errors"
	"fmt"
)

// Error represents a failure detected by the driver.
//
// Driver errors include:
//   - Not initialized: Tick or Run called before Setup
//   - Registration failure: the oracle rejected an agent or assigned an
//     unexpected handle
//   - Step failure: the oracle rejected a preferred velocity or an advance
//   - Output write failure: the recorder could not persist a record
//
// All of them are terminal for the run.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Label identifies the affected agent, if any.
	Label string

	// Tick is the tick being processed, or -1 when not applicable.
	Tick int

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes driver errors.
type ErrorCode string

const (
	// ErrCodeNotInitialized indicates Tick or Run was called before Setup.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// ErrCodeAlreadyInitialized indicates Setup was called twice.
	ErrCodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"

	// ErrCodeRegistration indicates the oracle rejected agent registration.
	ErrCodeRegistration ErrorCode = "ORACLE_REGISTRATION_FAILURE"

	// ErrCodeStep indicates the oracle rejected a command during a tick.
	ErrCodeStep ErrorCode = "ORACLE_STEP_FAILURE"

	// ErrCodeOutputWrite indicates the record stream could not be written.
	ErrCodeOutputWrite ErrorCode = "OUTPUT_WRITE_FAILURE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Label != "" && e.Tick >= 0:
		msg = fmt.Sprintf("%s (agent=%s, tick=%d)", msg, e.Label, e.Tick)
	case e.Label != "":
		msg = fmt.Sprintf("%s (agent=%s)", msg, e.Label)
	case e.Tick >= 0:
		msg = fmt.Sprintf("%s (tick=%d)", msg, e.Tick)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsNotInitialized returns true if err is a not-initialized error.
// Uses errors.As to handle wrapped errors.
func IsNotInitialized(err error) bool { return hasCode(err, ErrCodeNotInitialized) }

// IsRegistrationFailure returns true if err is an oracle registration failure.
func IsRegistrationFailure(err error) bool { return hasCode(err, ErrCodeRegistration) }

// IsStepFailure returns true if err is an oracle step failure.
func IsStepFailure(err error) bool { return hasCode(err, ErrCodeStep) }

// IsOutputWriteFailure returns true if err is an output write failure.
func IsOutputWriteFailure(err error) bool { return hasCode(err, ErrCodeOutputWrite) }

// NewNotInitializedError creates an Error for an operation invoked before Setup.
func NewNotInitializedError(op string) *Error {
	return &Error{
		Code:    ErrCodeNotInitialized,
		Message: fmt.Sprintf("%s called before setup", op),
		Tick:    -1,
	}
}

// NewRegistrationError creates an Error for a rejected agent registration.
func NewRegistrationError(label, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeRegistration,
		Message: message,
		Label:   label,
		Tick:    -1,
		Err:     err,
	}
}

// NewStepError creates an Error for an oracle failure during a tick.
func NewStepError(tick int, label, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeStep,
		Message: message,
		Label:   label,
		Tick:    tick,
		Err:     err,
	}
}

// NewOutputWriteError creates an Error for a record that could not be written.
func NewOutputWriteError(tick int, err error) *Error {
	return &Error{
		Code:    ErrCodeOutputWrite,
		Message: "record stream write failed",
		Tick:    tick,
		Err:     err,
	}
}
