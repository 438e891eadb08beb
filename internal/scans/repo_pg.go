package scans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Keywords and bullets are JSONB.
type PGRepo struct {
	DB *sql.DB
}

const scanColumns = `id, user_id, job_title, company, keywords, original_resume, enhanced_bullets, cover_letter, is_complete, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new scan record.
func (r *PGRepo) Create(ctx context.Context, rec ScanRecord) error {
	keywords, err := json.Marshal(nonNilStrings(rec.Keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	bullets, err := json.Marshal(nonNilGroups(rec.EnhancedBullets))
	if err != nil {
		return fmt.Errorf("encode bullets: %w", err)
	}
	const query = `
INSERT INTO scan_records (
    id, user_id, job_title, company, keywords, original_resume,
    enhanced_bullets, cover_letter, is_complete, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.JobTitle,
		rec.Company,
		keywords,
		rec.OriginalResume,
		bullets,
		rec.CoverLetter,
		rec.IsComplete,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

// Get fetches a scan owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (ScanRecord, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scan_records WHERE id = $1 AND user_id = $2`, id, userID)
	return scanRecord(row)
}

// UpdateBullets replaces the resume and bullets and clears any cover letter.
func (r *PGRepo) UpdateBullets(ctx context.Context, userID, id, resume string, bullets []BulletGroup, at time.Time) (ScanRecord, error) {
	encoded, err := json.Marshal(nonNilGroups(bullets))
	if err != nil {
		return ScanRecord{}, fmt.Errorf("encode bullets: %w", err)
	}
	row := r.DB.QueryRowContext(ctx, `
UPDATE scan_records
SET original_resume = $1, enhanced_bullets = $2, cover_letter = '', is_complete = $3, updated_at = $4
WHERE id = $5 AND user_id = $6
RETURNING `+scanColumns, resume, encoded, complete(bullets), at, id, userID)
	return scanRecord(row)
}

// UpdateCoverLetter stores the cover letter.
func (r *PGRepo) UpdateCoverLetter(ctx context.Context, userID, id, letter string, at time.Time) (ScanRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
UPDATE scan_records
SET cover_letter = $1, updated_at = $2
WHERE id = $3 AND user_id = $4
RETURNING `+scanColumns, letter, at, id, userID)
	return scanRecord(row)
}

// ListCompleted returns completed scans, newest first.
func (r *PGRepo) ListCompleted(ctx context.Context, userID string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+scanColumns+`
FROM scan_records
WHERE user_id = $1 AND is_complete = TRUE
ORDER BY created_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ScanRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteByUser removes every scan owned by userID.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM scan_records WHERE user_id = $1`, userID)
	return err
}

func scanRecord(row rowScanner) (ScanRecord, error) {
	var rec ScanRecord
	var keywords, bullets []byte
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.JobTitle,
		&rec.Company,
		&keywords,
		&rec.OriginalResume,
		&bullets,
		&rec.CoverLetter,
		&rec.IsComplete,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ScanRecord{}, ErrNotFound
		}
		return ScanRecord{}, err
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &rec.Keywords); err != nil {
			return ScanRecord{}, fmt.Errorf("decode keywords: %w", err)
		}
	}
	if len(bullets) > 0 {
		if err := json.Unmarshal(bullets, &rec.EnhancedBullets); err != nil {
			return ScanRecord{}, fmt.Errorf("decode bullets: %w", err)
		}
	}
	rec.Keywords = nonNilStrings(rec.Keywords)
	rec.EnhancedBullets = nonNilGroups(rec.EnhancedBullets)
	return rec, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilGroups(v []BulletGroup) []BulletGroup {
	if v == nil {
		return []BulletGroup{}
	}
	return v
}

var _ Repo = (*PGRepo)(nil)
