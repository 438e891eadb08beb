package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"ramresume-backend/internal/extract"
	"ramresume-backend/internal/shared/storage/object"
	"ramresume-backend/internal/shared/telemetry"
)

// Service manages each user's uploaded resume.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, now: time.Now}
}

// Upload replaces the user's stored file with a new PDF.
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (StoredFile, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" || fileName == "" || len(data) == 0 {
		return StoredFile{}, ErrInvalidInput
	}
	if len(data) > MaxUploadSize {
		return StoredFile{}, ErrTooLarge
	}
	if !extract.IsPDF(contentType, fileName, data) {
		return StoredFile{}, ErrNotPDF
	}

	if err := s.DeleteAll(ctx, userID); err != nil {
		return StoredFile{}, err
	}

	stored, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return StoredFile{}, err
	}

	f := StoredFile{
		ID:          uuid.NewString(),
		UserID:      userID,
		FileName:    fileName,
		ContentType: extract.MimePDF,
		SizeBytes:   stored.Size,
		StorageKey:  stored.Key,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		s.removeObject(ctx, stored.Key)
		return StoredFile{}, err
	}
	return f, nil
}

// List returns the user's file metadata.
func (s *Service) List(ctx context.Context, userID string) ([]StoredFile, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID)
}

// Download opens the user's current file.
func (s *Service) Download(ctx context.Context, userID string) (StoredFile, io.ReadCloser, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return StoredFile{}, nil, err
	}
	if len(list) == 0 {
		return StoredFile{}, nil, ErrNotFound
	}
	current := list[0]
	body, err := s.Store.Open(ctx, current.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return StoredFile{}, nil, ErrNotFound
		}
		return StoredFile{}, nil, err
	}
	return current, body, nil
}

// Delete removes one file owned by the user.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	f, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.removeObject(ctx, f.StorageKey)
	return nil
}

// DeleteAll removes every file the user owns.
func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	removed, err := s.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	s.RemoveObjects(ctx, removed)
	return nil
}

// RemoveObjects deletes stored bytes for rows that are already gone.
// Failures are logged.
func (s *Service) RemoveObjects(ctx context.Context, removed []StoredFile) {
	for _, f := range removed {
		s.removeObject(ctx, f.StorageKey)
	}
}

// ExtractText returns the plain text of an uploaded PDF.
func (s *Service) ExtractText(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidInput
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}
	if !extract.IsPDF(contentType, fileName, data) {
		return "", ErrNotPDF
	}
	text, err := extract.Text(ctx, data)
	if errors.Is(err, extract.ErrUnsupported) {
		return "", ErrNotPDF
	}
	return text, err
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("files.object_delete_failed", map[string]any{"storage_key": key, "error": err.Error()})
	}
}
