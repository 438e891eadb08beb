package scans

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]ScanRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]ScanRecord)}
}

// Create stores a new scan record.
func (r *MemoryRepo) Create(ctx context.Context, rec ScanRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = clone(rec)
	return nil
}

// Get returns a scan owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (ScanRecord, error) {
	if err := ctx.Err(); err != nil {
		return ScanRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok || rec.UserID != userID {
		return ScanRecord{}, ErrNotFound
	}
	return clone(rec), nil
}

// UpdateBullets replaces the resume and bullets and clears any cover letter.
func (r *MemoryRepo) UpdateBullets(ctx context.Context, userID, id, resume string, bullets []BulletGroup, at time.Time) (ScanRecord, error) {
	return r.update(ctx, userID, id, func(rec *ScanRecord) {
		rec.OriginalResume = resume
		rec.EnhancedBullets = bullets
		rec.CoverLetter = ""
		rec.IsComplete = complete(bullets)
		rec.UpdatedAt = at
	})
}

// UpdateCoverLetter stores the cover letter.
func (r *MemoryRepo) UpdateCoverLetter(ctx context.Context, userID, id, letter string, at time.Time) (ScanRecord, error) {
	return r.update(ctx, userID, id, func(rec *ScanRecord) {
		rec.CoverLetter = letter
		rec.UpdatedAt = at
	})
}

func (r *MemoryRepo) update(ctx context.Context, userID, id string, apply func(*ScanRecord)) (ScanRecord, error) {
	if err := ctx.Err(); err != nil {
		return ScanRecord{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok || rec.UserID != userID {
		return ScanRecord{}, ErrNotFound
	}
	apply(&rec)
	r.data[id] = clone(rec)
	return clone(rec), nil
}

// ListCompleted returns completed scans, newest first.
func (r *MemoryRepo) ListCompleted(ctx context.Context, userID string, limit int) ([]ScanRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]ScanRecord, 0)
	for _, rec := range r.data {
		if rec.UserID == userID && rec.IsComplete {
			out = append(out, clone(rec))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteByUser removes every scan owned by userID.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.data {
		if rec.UserID == userID {
			delete(r.data, id)
		}
	}
	return nil
}

func clone(rec ScanRecord) ScanRecord {
	rec.Keywords = append([]string{}, rec.Keywords...)
	groups := make([]BulletGroup, len(rec.EnhancedBullets))
	for i, g := range rec.EnhancedBullets {
		groups[i] = BulletGroup{Company: g.Company, Bullets: append([]string(nil), g.Bullets...)}
	}
	rec.EnhancedBullets = groups
	return rec
}

var _ Repo = (*MemoryRepo)(nil)
