package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Ledger
}

// NewMemoryStore returns an in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]Ledger)}
}

func (s *memoryStore) GetOrCreate(ctx context.Context, fresh Ledger) (Ledger, error) {
	if err := ctx.Err(); err != nil {
		return Ledger{}, err
	}
	s.mu.RLock()
	l, ok := s.data[fresh.UserID]
	s.mu.RUnlock()
	if ok {
		return l, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.data[fresh.UserID]; ok {
		return l, nil
	}
	s.data[fresh.UserID] = fresh
	return fresh, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string, now, next time.Time) (Ledger, error) {
	if err := ctx.Err(); err != nil {
		return Ledger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data[userID]
	if !ok {
		return Ledger{}, ErrNotFound
	}
	if l.due(now) {
		l.RemainingUses = DefaultRemainingUses
		l.ResetAt = next
		s.data[userID] = l
	}
	return l, nil
}

func (s *memoryStore) Decrement(ctx context.Context, userID string) (Ledger, bool, error) {
	if err := ctx.Err(); err != nil {
		return Ledger{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data[userID]
	if !ok {
		return Ledger{}, false, ErrNotFound
	}
	if l.RemainingUses <= 0 {
		return l, false, nil
	}
	l.RemainingUses--
	s.data[userID] = l
	return l, true, nil
}

func (s *memoryStore) IncrementTotalScans(ctx context.Context, userID string) (Ledger, error) {
	if err := ctx.Err(); err != nil {
		return Ledger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data[userID]
	if !ok {
		return Ledger{}, ErrNotFound
	}
	l.TotalScans++
	s.data[userID] = l
	return l, nil
}

func (s *memoryStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, userID)
	s.mu.Unlock()
	return nil
}
