package wizard

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrIllegalTransition   = errors.New("illegal wizard transition")
	ErrInactive            = errors.New("wizard is finished; reset to start again")
	ErrSubmissionDiscarded = errors.New("resubmission discarded")
	ErrAbandonCancelled    = errors.New("leave cancelled")
	ErrRestartCancelled    = errors.New("restart cancelled")
	ErrMissingInput        = errors.New("missing input for this step")
)

// Kind classifies API failures the way the UI reacts to them.
type Kind string

const (
	KindAuthRequired  Kind = "authentication_required"
	KindTermsRequired Kind = "terms_not_accepted"
	KindUsageLimit    Kind = "usage_limit_exceeded"
	KindValidation    Kind = "validation_failed"
	KindUpstream      Kind = "upstream_generation_failure"
	KindNotFound      Kind = "not_found"
	KindRateLimited   Kind = "rate_limited"
	KindInternal      Kind = "internal_failure"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Kind       Kind
	Status     int
	Code       string
	Message    string
	ResetDate  time.Time
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func kindForCode(code string, status int) Kind {
	switch code {
	case "unauthorized":
		return KindAuthRequired
	case "terms_required":
		return KindTermsRequired
	case "usage_limit_exceeded":
		return KindUsageLimit
	case "validation_error":
		return KindValidation
	case "upstream_error":
		return KindUpstream
	case "not_found":
		return KindNotFound
	case "rate_limited":
		return KindRateLimited
	}
	switch status {
	case 401:
		return KindAuthRequired
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimited
	case 502:
		return KindUpstream
	}
	return KindInternal
}
