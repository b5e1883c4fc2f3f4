package service

import (
	"errors"
	"fmt"
)

// Error kinds reported to the terminal as error_type.
const (
	KindValidation           = "ValidationError"
	KindConnection           = "ConnectionError"
	KindUnresolvedInstrument = "UnresolvedInstrumentError"
	KindSubmission           = "SubmissionError"
	KindInternal             = "InternalError"
)

// ValidationError means the order intent itself is unacceptable. Field names
// the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Kind() string  { return KindValidation }

// ConnectionError means the venue could not be reached.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "failed to connect to venue: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }
func (e *ConnectionError) Kind() string  { return KindConnection }

// UnresolvedInstrumentError means the terminal code has no venue mapping.
type UnresolvedInstrumentError struct {
	Symbol string
}

func (e *UnresolvedInstrumentError) Error() string {
	return fmt.Sprintf("symbol %q is not mapped to a venue instrument", e.Symbol)
}
func (e *UnresolvedInstrumentError) Kind() string { return KindUnresolvedInstrument }

// SubmissionError wraps a failure while qualifying, placing or reading back
// an order. Stage names the step that failed.
type SubmissionError struct {
	Stage string
	Err   error
}

func (e *SubmissionError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }
func (e *SubmissionError) Kind() string  { return KindSubmission }

// ErrorKind returns the error_type for err.
func ErrorKind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
