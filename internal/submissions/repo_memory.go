package submissions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores submissions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Submission
	byOwner map[string][]Submission
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Submission),
		byOwner: make(map[string][]Submission),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, s Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
	r.byOwner[s.OwnerID] = append(r.byOwner[s.OwnerID], s)
	return nil
}

// GetByID hides other owners' submissions behind ErrNotFound.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok || s.OwnerID != ownerID {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

// ListByOwner returns newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	owned := make([]Submission, len(r.byOwner[ownerID]))
	copy(owned, r.byOwner[ownerID])
	r.mu.RUnlock()

	if offset >= len(owned) {
		return []Submission{}, nil
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var _ Repo = (*MemoryRepo)(nil)
