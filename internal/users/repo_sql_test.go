package users

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSQLRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("login_count = users.login_count + 1")).
		WithArgs("google:1", "a@example.com", "Ann", nil, nil, nil, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &SQLRepo{DB: db}
	require.NoError(t, repo.RecordLogin(context.Background(), User{
		ID: "google:1", Email: "a@example.com", FullName: "Ann", CreatedAt: ts, LastLoginAt: ts,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "login_count", "created_at", "last_login_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("google:1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("google:1", "a@example.com", "Ann", nil, nil, "https://p", 4, ts, ts))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("google:2").
		WillReturnError(sql.ErrNoRows)

	repo := &SQLRepo{DB: db}
	user, err := repo.GetByID(context.Background(), "google:1")
	require.NoError(t, err)
	require.Equal(t, "Ann", user.FullName)
	require.Empty(t, user.GivenName)
	require.Equal(t, "https://p", user.PictureURL)
	require.Equal(t, 4, user.LoginCount)

	_, err = repo.GetByID(context.Background(), "google:2")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpsertKeepsCreatedAt(t *testing.T) {
	repo := NewMemoryRepo()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &Service{Repo: repo, Now: func() time.Time { return first }}
	ctx := context.Background()

	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "a@example.com"}))
	svc.Now = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "b@example.com"}))

	user, err := svc.GetByID(ctx, "google:1")
	require.NoError(t, err)
	require.Equal(t, "b@example.com", user.Email)
	require.Equal(t, first, user.CreatedAt)
	require.Equal(t, first.Add(time.Hour), user.LastLoginAt)
	require.Equal(t, 2, user.LoginCount)

	require.ErrorIs(t, svc.UpsertFromAuth(ctx, User{ID: "google:2"}), ErrInvalidInput)
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{FullName: " Ann Lee ", GivenName: "Ann"}, "Ann Lee"},
		{User{GivenName: "Ann", Email: "ann@example.com"}, "Ann"},
		{User{Email: "ann@example.com"}, "ann"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.user.DisplayName())
	}
	require.Equal(t, "google", User{ID: "google:42"}.Provider())
	require.Empty(t, User{ID: "legacy"}.Provider())
}
