package memory

import (
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

// JobRepo keeps jobs in memory.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

var _ domain.JobRepository = (*JobRepo)(nil)

// NewJobRepo constructs an empty JobRepo.
func NewJobRepo() *JobRepo { return &JobRepo{jobs: map[string]domain.Job{}} }

// Put stores a job. Reusing an id fails with ErrConflict.
func (r *JobRepo) Put(ctx domain.Context, j domain.Job) error {
	_, span := otel.Tracer("repo.jobs").Start(ctx, "jobs.Put")
	defer span.End()
	if j.ID == "" {
		return fmt.Errorf("op=job.put: empty id: %w", domain.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; ok {
		return fmt.Errorf("op=job.put: %w", domain.ErrConflict)
	}
	r.jobs[j.ID] = copyJob(j)
	return nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.Job, error) {
	_, span := otel.Tracer("repo.jobs").Start(ctx, "jobs.Get")
	defer span.End()
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
	}
	return copyJob(j), nil
}

// List returns all jobs ordered by creation time, then id.
func (r *JobRepo) List(ctx domain.Context) ([]domain.Job, error) {
	_, span := otel.Tracer("repo.jobs").Start(ctx, "jobs.List")
	defer span.End()
	r.mu.RLock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, copyJob(j))
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
