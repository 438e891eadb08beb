package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparseableResponse means the model replied with something we could not use.
	ErrUnparseableResponse = errors.New("unparseable generation response")
	// ErrUpstream matches any *UpstreamError.
	ErrUpstream = errors.New("text generation failed")
)

// Validation failure reasons.
const (
	ReasonRequired          = "required"
	ReasonTooLong           = "too_long"
	ReasonDisallowedContent = "disallowed_content"
)

// ValidationError rejects input before any provider call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// UpstreamError wraps a provider failure.
type UpstreamError struct {
	Operation string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstream) match.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
