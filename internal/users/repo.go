package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("user already exists")
)

type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// Update writes every mutable profile column.
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, userID string) error
}
