package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

const ledgerColumns = `remaining_uses, reset_at, total_scans`

func (s *pgStore) GetOrCreate(ctx context.Context, fresh Ledger) (Ledger, error) {
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO usage_ledgers (user_id, remaining_uses, reset_at, total_scans)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO NOTHING`,
		fresh.UserID, fresh.RemainingUses, fresh.ResetAt, fresh.TotalScans); err != nil {
		return Ledger{}, err
	}
	return s.get(ctx, fresh.UserID)
}

func (s *pgStore) Reset(ctx context.Context, userID string, now, next time.Time) (Ledger, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE usage_ledgers SET remaining_uses = $2, reset_at = $3, updated_at = NOW()
WHERE user_id = $1 AND reset_at <= $4
RETURNING `+ledgerColumns, userID, DefaultRemainingUses, next, now)
	l, err := scanLedger(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// another request already opened the new window
		return s.get(ctx, userID)
	}
	return l, err
}

func (s *pgStore) Decrement(ctx context.Context, userID string) (Ledger, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE usage_ledgers SET remaining_uses = remaining_uses - 1, updated_at = NOW()
WHERE user_id = $1 AND remaining_uses > 0
RETURNING `+ledgerColumns, userID)
	l, err := scanLedger(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		l, err = s.get(ctx, userID)
		return l, false, err
	}
	if err != nil {
		return Ledger{}, false, err
	}
	return l, true, nil
}

func (s *pgStore) IncrementTotalScans(ctx context.Context, userID string) (Ledger, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE usage_ledgers SET total_scans = total_scans + 1, updated_at = NOW()
WHERE user_id = $1
RETURNING `+ledgerColumns, userID)
	l, err := scanLedger(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ledger{}, ErrNotFound
	}
	return l, err
}

func (s *pgStore) Delete(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM usage_ledgers WHERE user_id = $1`, userID)
	return err
}

func (s *pgStore) get(ctx context.Context, userID string) (Ledger, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM usage_ledgers WHERE user_id = $1`, userID)
	l, err := scanLedger(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ledger{}, ErrNotFound
	}
	return l, err
}

func scanLedger(row *sql.Row, userID string) (Ledger, error) {
	l := Ledger{UserID: userID}
	if err := row.Scan(&l.RemainingUses, &l.ResetAt, &l.TotalScans); err != nil {
		return Ledger{}, err
	}
	l.ResetAt = l.ResetAt.UTC()
	return l, nil
}
