package files

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]StoredFile // userID -> files
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]StoredFile),
	}
}

// Create stores a file row.
func (r *MemoryRepo) Create(ctx context.Context, f StoredFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[f.UserID] = append(r.data[f.UserID], f)
	return nil
}

// ListByUser returns the user's files, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]StoredFile, len(r.data[userID]))
	copy(out, r.data[userID])
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// GetByID returns one of the user's files.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.data[userID] {
		if f.ID == id {
			return f, nil
		}
	}
	return StoredFile{}, ErrNotFound
}

// Delete removes one of the user's files.
func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.data[userID]
	for i := range rows {
		if rows[i].ID == id {
			r.data[userID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteByUser removes all of the user's rows.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) ([]StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.data[userID]
	delete(r.data, userID)
	return removed, nil
}
