package files

import "context"

// Repo defines persistence operations for stored file metadata.
type Repo interface {
	Create(ctx context.Context, f StoredFile) error
	ListByUser(ctx context.Context, userID string) ([]StoredFile, error)
	GetByID(ctx context.Context, userID, id string) (StoredFile, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteByUser removes every row for the user and returns what was removed.
	DeleteByUser(ctx context.Context, userID string) ([]StoredFile, error)
}
