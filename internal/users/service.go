package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// UpsertFromAuth records a successful sign-in and the profile it returned.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return ErrInvalidInput
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now().UTC()
	user.CreatedAt = ts
	user.LastLoginAt = ts
	return s.Repo.RecordLogin(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID)
}
