package submissions

import (
	"context"
	"database/sql"
	"errors"
)

// SQLRepo implements Repo on the submissions table (Postgres or SQLite).
type SQLRepo struct {
	DB *sql.DB
}

func (r *SQLRepo) Create(ctx context.Context, s Submission) error {
	const query = `
INSERT INTO submissions (
    id, owner_id, filename, storage_key, url, size_bytes, template, job_role, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.OwnerID,
		s.Filename,
		s.StorageKey,
		s.URL,
		s.SizeBytes,
		s.Template,
		s.JobRole,
		s.CreatedAt,
	)
	return err
}

func (r *SQLRepo) GetByID(ctx context.Context, ownerID, id string) (Submission, error) {
	const query = `
SELECT id, owner_id, filename, storage_key, url, size_bytes, template, job_role, created_at
FROM submissions
WHERE id = $1 AND owner_id = $2
LIMIT 1`
	s, err := scanSubmission(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	return s, err
}

func (r *SQLRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Submission, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT id, owner_id, filename, storage_key, url, size_bytes, template, job_role, created_at
FROM submissions
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Filename,
		&s.StorageKey,
		&s.URL,
		&s.SizeBytes,
		&s.Template,
		&s.JobRole,
		&s.CreatedAt,
	)
	return s, err
}

var _ Repo = (*SQLRepo)(nil)
