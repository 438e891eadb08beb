package usage

import (
	"context"
	"time"
)

// Store persists ledgers. Mutations are conditional so concurrent callers
// cannot push remaining uses below zero or reset a window twice.
type Store interface {
	GetOrCreate(ctx context.Context, fresh Ledger) (Ledger, error)
	// Reset refills the ledger if its window ended at or before now.
	Reset(ctx context.Context, userID string, now, next time.Time) (Ledger, error)
	// Decrement takes one use if any remain; ok is false otherwise.
	Decrement(ctx context.Context, userID string) (l Ledger, ok bool, err error)
	IncrementTotalScans(ctx context.Context, userID string) (Ledger, error)
	Delete(ctx context.Context, userID string) error
}

// Service manages usage ledgers via an underlying store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: NewMemoryStore(), now: time.Now}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// CheckUsage returns the user's ledger, creating the default one if absent.
func (s *Service) CheckUsage(ctx context.Context, userID string) (Ledger, error) {
	if userID == "" {
		return Ledger{}, ErrLedgerRequired
	}
	return s.store.GetOrCreate(ctx, newLedger(userID, s.now()))
}

// ResetIfNeeded refills the ledger when its window has elapsed.
func (s *Service) ResetIfNeeded(ctx context.Context, l Ledger) (Ledger, error) {
	if l.UserID == "" {
		return Ledger{}, ErrLedgerRequired
	}
	now := s.now().UTC()
	if !l.due(now) {
		return l, nil
	}
	return s.store.Reset(ctx, l.UserID, now, now.Add(ResetPeriod))
}

// DecrementUsage takes one use. It reports false, leaving the ledger
// unchanged, when none remain.
func (s *Service) DecrementUsage(ctx context.Context, l Ledger) (Ledger, bool, error) {
	if l.UserID == "" {
		return Ledger{}, false, ErrLedgerRequired
	}
	if l.RemainingUses <= 0 {
		return l, false, nil
	}
	return s.store.Decrement(ctx, l.UserID)
}

// IncrementTotalScans bumps the lifetime scan counter.
func (s *Service) IncrementTotalScans(ctx context.Context, l Ledger) (Ledger, error) {
	if l.UserID == "" {
		return Ledger{}, ErrLedgerRequired
	}
	return s.store.IncrementTotalScans(ctx, l.UserID)
}

// Gate loads and refreshes the ledger, failing with *LimitError when the
// user has nothing left this window.
func (s *Service) Gate(ctx context.Context, userID string) (Ledger, error) {
	l, err := s.CheckUsage(ctx, userID)
	if err != nil {
		return Ledger{}, err
	}
	l, err = s.ResetIfNeeded(ctx, l)
	if err != nil {
		return Ledger{}, err
	}
	if l.RemainingUses <= 0 {
		return l, &LimitError{ResetDate: l.ResetAt}
	}
	return l, nil
}

// Delete removes the user's ledger.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}
