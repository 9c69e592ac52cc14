package submissions

import "context"

// Repo records stored submissions.
type Repo interface {
	Create(ctx context.Context, s Submission) error
	GetByID(ctx context.Context, ownerID, id string) (Submission, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Submission, error)
}
