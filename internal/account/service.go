package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ramresume-backend/internal/files"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/shared/telemetry"
	"ramresume-backend/internal/usage"
	"ramresume-backend/internal/users"
)

// Service removes a user and everything they own.
type Service struct {
	Users *users.Service
	Usage *usage.Service
	Scans *scans.Service
	Files *files.Service
	// DB, when set, makes row removal a single transaction.
	DB *sql.DB
}

func NewService(userSvc *users.Service, usageSvc *usage.Service, scanSvc *scans.Service, fileSvc *files.Service, db *sql.DB) *Service {
	return &Service{Users: userSvc, Usage: usageSvc, Scans: scanSvc, Files: fileSvc, DB: db}
}

// Delete removes the ledger, stored files, scan records and the user.
// Stored objects are removed after the rows are gone.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("userID is required")
	}

	var removed []files.StoredFile
	var err error
	if s.DB != nil {
		removed, err = deleteWithTx(ctx, s.DB, userID)
	} else {
		removed, err = s.deleteEach(ctx, userID)
	}
	if err != nil {
		return err
	}

	s.Files.RemoveObjects(ctx, removed)
	telemetry.Info("account.deleted", map[string]any{"user_id": userID, "files_removed": len(removed)})
	return nil
}

func deleteWithTx(ctx context.Context, db *sql.DB, userID string) ([]files.StoredFile, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	removed, err := files.DeleteByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scan_records WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_ledgers WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Service) deleteEach(ctx context.Context, userID string) ([]files.StoredFile, error) {
	removed, err := s.Files.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Scans.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.Usage.Delete(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.Users.Delete(ctx, userID); err != nil && !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}
	return removed, nil
}
