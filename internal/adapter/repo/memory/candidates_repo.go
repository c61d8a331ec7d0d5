package memory

import (
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

// CandidateRepo keeps candidates in memory.
type CandidateRepo struct {
	mu    sync.RWMutex
	cands map[string]domain.Candidate
}

var _ domain.CandidateRepository = (*CandidateRepo)(nil)

// NewCandidateRepo constructs an empty CandidateRepo.
func NewCandidateRepo() *CandidateRepo {
	return &CandidateRepo{cands: map[string]domain.Candidate{}}
}

// Put stores a candidate. Reusing an id fails with ErrConflict.
func (r *CandidateRepo) Put(ctx domain.Context, c domain.Candidate) error {
	_, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.Put")
	defer span.End()
	if c.ID == "" {
		return fmt.Errorf("op=candidate.put: empty id: %w", domain.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cands[c.ID]; ok {
		return fmt.Errorf("op=candidate.put: %w", domain.ErrConflict)
	}
	r.cands[c.ID] = copyCandidate(c)
	return nil
}

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	_, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.Get")
	defer span.End()
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cands[id]
	if !ok {
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
	}
	return copyCandidate(c), nil
}

// List returns all candidates ordered by creation time, then id.
func (r *CandidateRepo) List(ctx domain.Context) ([]domain.Candidate, error) {
	_, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.List")
	defer span.End()
	r.mu.RLock()
	out := make([]domain.Candidate, 0, len(r.cands))
	for _, c := range r.cands {
		out = append(out, copyCandidate(c))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}
