package wizard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLKV stores handoff slots in the handoff_slots table. The queries run on
// Postgres (pgx) and SQLite (modernc).
type SQLKV struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewSQLKV wraps db.
func NewSQLKV(db *sql.DB) *SQLKV {
	return &SQLKV{DB: db, Now: time.Now}
}

func (s *SQLKV) Put(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO handoff_slots (key, payload, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at`
	if _, err := s.DB.ExecContext(ctx, q, key, string(value), s.now()); err != nil {
		return fmt.Errorf("put handoff slot: %w", err)
	}
	return nil
}

func (s *SQLKV) Take(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `DELETE FROM handoff_slots WHERE key = $1 RETURNING payload`
	var payload string
	err := s.DB.QueryRowContext(ctx, q, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("take handoff slot: %w", err)
	}
	return []byte(payload), true, nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM handoff_slots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete handoff slot: %w", err)
	}
	return nil
}

// PurgeOlderThan removes slots nobody came back for.
func (s *SQLKV) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM handoff_slots WHERE created_at < $1`, s.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purge handoff slots: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLKV) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

var _ KV = (*SQLKV)(nil)
