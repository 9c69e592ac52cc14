package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("user id and email are required")
)

type Repo interface {
	// RecordLogin inserts the user or refreshes its profile. CreatedAt of an
	// existing user is kept and LoginCount is incremented.
	RecordLogin(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}
