// Package usecase contains application business logic services.
package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
)

// JobInput is the data needed to create a job.
type JobInput struct {
	Title       string
	Description string
	Rubric      []domain.RubricItem
	RoleContext string
}

// JobService creates and loads jobs.
type JobService struct {
	Jobs domain.JobRepository
}

// NewJobService constructs a JobService with the given repository.
func NewJobService(j domain.JobRepository) JobService { return JobService{Jobs: j} }

// Create validates the rubric and stores a new immutable job, returning its id.
func (s JobService) Create(ctx domain.Context, in JobInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("%w: title required", domain.ErrInvalidArgument)
	}
	seen := map[string]struct{}{}
	rubric := make([]domain.RubricItem, 0, len(in.Rubric))
	for _, r := range in.Rubric {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			return "", fmt.Errorf("%w: rubric key required", domain.ErrInvalidArgument)
		}
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("%w: duplicate rubric key %q", domain.ErrInvalidArgument, key)
		}
		if r.Weight < 0 {
			return "", fmt.Errorf("%w: rubric weight for %q must be >= 0", domain.ErrInvalidArgument, key)
		}
		seen[key] = struct{}{}
		r.Key = key
		rubric = append(rubric, r)
	}

	j := domain.Job{
		Title:       in.Title,
		Description: in.Description,
		Rubric:      rubric,
		RoleContext: in.RoleContext,
		CreatedAt:   time.Now().UTC(),
	}
	for i := 0; i < idAttempts; i++ {
		j.ID = newJobID()
		err := s.Jobs.Put(ctx, j)
		if err == nil {
			obsctx.LoggerFromContext(ctx).Info("job created", "job_id", j.ID, "rubric_keys", len(rubric))
			return j.ID, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", fmt.Errorf("op=job.create: %w", err)
		}
	}
	return "", fmt.Errorf("op=job.create: id space exhausted: %w", domain.ErrConflict)
}

// Get loads a job by id.
func (s JobService) Get(ctx domain.Context, id string) (domain.Job, error) {
	return s.Jobs.Get(ctx, id)
}
