// Package runerr defines the failure taxonomy of a clustering run.
//
// Terminal failures (invalid requests, insufficient data, unexpected errors) end a run and are
// reported to the caller. Recoverable failures (linguistic processing of one
// unit, a malformed cluster node) are handled where they occur and only show
// up in logs or as inline markers in the exported tree.
package runerr

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrInsufficientData     = errors.New("insufficient data: at least 2 units are required, add more text")
	ErrTooManyUnits         = errors.New("too many units for a single run, shorten the text or raise the unit cap")
	ErrLinguisticProcessing = errors.New("linguistic processing failed")
	ErrMalformedClusterNode = errors.New("malformed cluster node")
	ErrUnexpected           = errors.New("unexpected pipeline error")
	ErrInvalidRequest       = errors.New("invalid request")
)

// Kind names reported to callers alongside the error text.
const (
	KindInsufficientData     = "InsufficientData"
	KindLinguisticProcessing = "LinguisticProcessingFailure"
	KindMalformedClusterNode = "MalformedClusterNode"
	KindUnexpected           = "UnexpectedPipelineError"
	KindInvalidRequest       = "InvalidRequest"
)

// Kind classifies err into one of the taxonomy names.
// Anything not wrapping a known sentinel is an unexpected pipeline error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData), errors.Is(err, ErrTooManyUnits):
		return KindInsufficientData
	case errors.Is(err, ErrLinguisticProcessing):
		return KindLinguisticProcessing
	case errors.Is(err, ErrMalformedClusterNode):
		return KindMalformedClusterNode
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindUnexpected
	}
}

// InsufficientData wraps ErrInsufficientData with the observed unit count.
func InsufficientData(units int) error {
	return fmt.Errorf("%w (got %d)", ErrInsufficientData, units)
}

// FromPanic converts a recovered panic value into an unexpected pipeline error.
func FromPanic(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnexpected, v)
}
