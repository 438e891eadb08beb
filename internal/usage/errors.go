package usage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLimitReached indicates the user has no generation runs left this window.
	ErrLimitReached = errors.New("usage limit reached")
	// ErrLedgerRequired is returned when a mutation is given an empty ledger.
	ErrLedgerRequired = errors.New("usage ledger required")
	// ErrNotFound indicates no ledger row exists for the user.
	ErrNotFound = errors.New("usage ledger not found")
)

// LimitError reports an exhausted ledger and when it refills.
type LimitError struct {
	ResetDate time.Time
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("usage limit reached; resets at %s", e.ResetDate.Format(time.RFC3339))
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }
