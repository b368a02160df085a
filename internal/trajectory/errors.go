package trajectory

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable matches any DataUnavailableError via errors.Is.
var ErrDataUnavailable = errors.New("trajectory data unavailable")

// DataUnavailableError reports that a source could not produce data for an
// identity: its records are missing, unreadable or malformed.
//
// Callers may recover by falling back to another source (see Fallback).
type DataUnavailableError struct {
	Label string // agent label that was requested
	Path  string // file consulted, if any
	Err   error  // underlying cause
}

func (e *DataUnavailableError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("trajectory data unavailable for %s (%s): %v", e.Label, e.Path, e.Err)
	}
	return fmt.Sprintf("trajectory data unavailable for %s: %v", e.Label, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is reports true for ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
