package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, google_id, email, display_name, first_name, last_name, profile_picture,
       has_accepted_terms, accepted_terms_at, grad_year, major, interested_positions,
       onboarding_completed, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	positions, err := json.Marshal(nonNil(user.InterestedPositions))
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	const query = `
INSERT INTO users (id, google_id, email, display_name, first_name, last_name, profile_picture,
                   has_accepted_terms, accepted_terms_at, grad_year, major, interested_positions,
                   onboarding_completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.DB.ExecContext(ctx, query,
		user.ID,
		user.GoogleID,
		user.Email,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.ProfilePicture,
		user.HasAcceptedTerms,
		nullableTime(user),
		nullableYear(user.GradYear),
		user.Major,
		positions,
		user.OnboardingCompleted,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrExists
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var user User
	var acceptedAt sql.NullTime
	var gradYear sql.NullInt64
	var positions []byte
	err := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, userID).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.DisplayName,
		&user.FirstName,
		&user.LastName,
		&user.ProfilePicture,
		&user.HasAcceptedTerms,
		&acceptedAt,
		&gradYear,
		&user.Major,
		&positions,
		&user.OnboardingCompleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if acceptedAt.Valid {
		at := acceptedAt.Time
		user.AcceptedTermsAt = &at
	}
	if gradYear.Valid {
		user.GradYear = int(gradYear.Int64)
	}
	if len(positions) > 0 {
		if err := json.Unmarshal(positions, &user.InterestedPositions); err != nil {
			return User{}, fmt.Errorf("decode positions: %w", err)
		}
	}
	user.InterestedPositions = nonNil(user.InterestedPositions)
	return user, nil
}

func (r *PGRepo) Update(ctx context.Context, user User) error {
	positions, err := json.Marshal(nonNil(user.InterestedPositions))
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	const query = `
UPDATE users SET
  email = $2,
  display_name = $3,
  first_name = $4,
  last_name = $5,
  profile_picture = $6,
  has_accepted_terms = $7,
  accepted_terms_at = $8,
  grad_year = $9,
  major = $10,
  interested_positions = $11,
  onboarding_completed = $12,
  updated_at = $13
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.ProfilePicture,
		user.HasAcceptedTerms,
		nullableTime(user),
		nullableYear(user.GradYear),
		user.Major,
		positions,
		user.OnboardingCompleted,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

func nullableTime(user User) any {
	if user.AcceptedTermsAt == nil {
		return nil
	}
	return *user.AcceptedTermsAt
}

func nullableYear(year int) any {
	if year == 0 {
		return nil
	}
	return year
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
