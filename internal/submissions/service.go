package submissions

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
)

// DefaultPrefix is the storage folder for submissions.
const DefaultPrefix = "snips"

// Input is one LaTeX document to store.
type Input struct {
	OwnerID   string
	LatexCode string
	Template  string
	JobRole   string
}

// Service stores generated LaTeX and records where it went.
type Service struct {
	Repo   Repo
	Store  object.ObjectStore
	Prefix string
	Now    func() time.Time
}

// Submit validates and stores the LaTeX under <prefix>/resume-<uuid>.tex.
// A failure to record the submission is logged; the stored file is still returned.
func (s *Service) Submit(ctx context.Context, in Input) (Submission, error) {
	if strings.TrimSpace(in.LatexCode) == "" {
		return Submission{}, ErrInvalidInput
	}
	if len(in.LatexCode) > MaxLatexBytes {
		return Submission{}, ErrTooLarge
	}
	if s.Store == nil {
		return Submission{}, errors.New("submissions: missing object store")
	}

	id := uuid.NewString()
	filename := "resume-" + id + ".tex"
	key := path.Join(s.prefix(), filename)

	size, err := s.Store.SaveWithKey(ctx, key, "text/plain", strings.NewReader(in.LatexCode))
	if err != nil {
		return Submission{}, fmt.Errorf("store submission key=%s: %w", key, err)
	}

	sub := Submission{
		ID:         id,
		OwnerID:    in.OwnerID,
		Filename:   filename,
		StorageKey: key,
		URL:        s.Store.URL(key),
		SizeBytes:  size,
		Template:   in.Template,
		JobRole:    in.JobRole,
		CreatedAt:  s.now(),
	}
	if s.Repo != nil {
		if err := s.Repo.Create(ctx, sub); err != nil {
			telemetry.Warn("submissions.record_failed", map[string]any{
				"submission_id": id,
				"key":           key,
				"err":           err,
			})
		}
	}
	return sub, nil
}

// List returns the owner's submissions, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Submission, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	if s.Repo == nil {
		return []Submission{}, nil
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Get returns one of the owner's submissions.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Submission, error) {
	if ownerID == "" || id == "" || s.Repo == nil {
		return Submission{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, ownerID, id)
}

func (s *Service) prefix() string {
	p := strings.Trim(strings.TrimSpace(s.Prefix), "/")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
