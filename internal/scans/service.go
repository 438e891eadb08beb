package scans

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service coordinates scan persistence.
type Service struct {
	Repo  Repo
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{
		Repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create records a new scan at the keyword step.
func (s *Service) Create(ctx context.Context, userID, jobTitle, company string, keywords []string) (ScanRecord, error) {
	now := s.now()
	rec := ScanRecord{
		ID:              s.newID(),
		UserID:          userID,
		JobTitle:        jobTitle,
		Company:         company,
		Keywords:        append([]string{}, keywords...),
		EnhancedBullets: []BulletGroup{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return ScanRecord{}, err
	}
	return rec, nil
}

// Get returns a scan owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (ScanRecord, error) {
	if id == "" {
		return ScanRecord{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, id)
}

// UpdateBullets stores enhanced bullets, completing the scan.
func (s *Service) UpdateBullets(ctx context.Context, userID, id, resume string, bullets []BulletGroup) (ScanRecord, error) {
	if id == "" {
		return ScanRecord{}, ErrNotFound
	}
	return s.Repo.UpdateBullets(ctx, userID, id, resume, bullets, s.now())
}

// UpdateCoverLetter stores a drafted cover letter.
func (s *Service) UpdateCoverLetter(ctx context.Context, userID, id, letter string) (ScanRecord, error) {
	if id == "" {
		return ScanRecord{}, ErrNotFound
	}
	return s.Repo.UpdateCoverLetter(ctx, userID, id, letter, s.now())
}

// History lists the user's most recent completed scans.
func (s *Service) History(ctx context.Context, userID string) ([]ScanRecord, error) {
	return s.Repo.ListCompleted(ctx, userID, HistoryLimit)
}

// DeleteByUser removes all of a user's scans.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	return s.Repo.DeleteByUser(ctx, userID)
}
