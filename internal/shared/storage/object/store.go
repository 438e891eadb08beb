package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a storage key has no object.
var ErrNotFound = errors.New("object not found")

// Object describes a stored upload.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore keeps uploaded resume binaries. Keys are produced by Save
// and are opaque to callers.
type ObjectStore interface {
	Save(ctx context.Context, userID, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is idempotent: a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
