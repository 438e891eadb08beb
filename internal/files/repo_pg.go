package files

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const fileColumns = `id, user_id, filename, content_type, size_bytes, storage_key, uploaded_at`

// Create inserts a file row.
func (r *PGRepo) Create(ctx context.Context, f StoredFile) error {
	const query = `
INSERT INTO stored_files (
    id,
    user_id,
    filename,
    content_type,
    size_bytes,
    storage_key,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctx, query,
		f.ID,
		f.UserID,
		f.FileName,
		f.ContentType,
		f.SizeBytes,
		f.StorageKey,
		f.UploadedAt,
	)
	return err
}

// ListByUser returns the user's files, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]StoredFile, error) {
	query := `SELECT ` + fileColumns + `
FROM stored_files
WHERE user_id = $1
ORDER BY uploaded_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

// GetByID returns one of the user's files.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (StoredFile, error) {
	query := `SELECT ` + fileColumns + `
FROM stored_files
WHERE id = $1 AND user_id = $2`
	var f StoredFile
	err := r.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&f.ID, &f.UserID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.StorageKey, &f.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredFile{}, ErrNotFound
		}
		return StoredFile{}, err
	}
	return f, nil
}

// Delete removes one of the user's files.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM stored_files WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes all of the user's rows.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) ([]StoredFile, error) {
	return DeleteByUserTx(ctx, r.DB, userID)
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DeleteByUserTx removes the user's rows using db or an open transaction.
func DeleteByUserTx(ctx context.Context, db Execer, userID string) ([]StoredFile, error) {
	query := `DELETE FROM stored_files WHERE user_id = $1 RETURNING ` + fileColumns
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

func scanFiles(rows *sql.Rows) ([]StoredFile, error) {
	out := []StoredFile{}
	for rows.Next() {
		var f StoredFile
		if err := rows.Scan(&f.ID, &f.UserID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.StorageKey, &f.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
