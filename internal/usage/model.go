package usage

import "time"

const (
	// DefaultRemainingUses is the weekly allowance of generation runs.
	DefaultRemainingUses = 20
	// ResetPeriod is the length of one usage window.
	ResetPeriod = 7 * 24 * time.Hour
)

// Ledger is a user's weekly generation allowance.
type Ledger struct {
	UserID        string    `json:"userId"`
	RemainingUses int       `json:"remainingUses"`
	ResetAt       time.Time `json:"resetDate"`
	TotalScans    int       `json:"totalScans"`
}

func newLedger(userID string, now time.Time) Ledger {
	return Ledger{
		UserID:        userID,
		RemainingUses: DefaultRemainingUses,
		ResetAt:       now.UTC().Add(ResetPeriod),
	}
}

func (l Ledger) due(now time.Time) bool {
	return !now.Before(l.ResetAt)
}
