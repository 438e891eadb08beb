package scans

import (
	"context"
	"time"
)

// Repo persists scan records. Every lookup and mutation is scoped by owner.
type Repo interface {
	Create(ctx context.Context, rec ScanRecord) error
	Get(ctx context.Context, userID, id string) (ScanRecord, error)
	UpdateBullets(ctx context.Context, userID, id, resume string, bullets []BulletGroup, at time.Time) (ScanRecord, error)
	UpdateCoverLetter(ctx context.Context, userID, id, letter string, at time.Time) (ScanRecord, error)
	ListCompleted(ctx context.Context, userID string, limit int) ([]ScanRecord, error)
	DeleteByUser(ctx context.Context, userID string) error
}
