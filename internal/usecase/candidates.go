package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
	"github.com/fairyhunter13/ai-cv-fairness/pkg/textx"
)

// CandidateInput is one candidate submitted for a job.
type CandidateInput struct {
	CVText           string
	DisplayName      *string
	Artifacts        map[string]any
	CounterfactualOf *string
}

// CandidateService ingests candidates for existing jobs.
type CandidateService struct {
	Jobs        domain.JobRepository
	Candidates  domain.CandidateRepository
	MaxPerBatch int
	MaxCVChars  int
}

// NewCandidateService constructs a CandidateService. Zero limits disable the checks.
func NewCandidateService(j domain.JobRepository, c domain.CandidateRepository, maxPerBatch, maxCVChars int) CandidateService {
	return CandidateService{Jobs: j, Candidates: c, MaxPerBatch: maxPerBatch, MaxCVChars: maxCVChars}
}

// AddBatch stores the candidates under jobID and returns their ids in input order.
// The job must exist.
func (s CandidateService) AddBatch(ctx domain.Context, jobID string, in []CandidateInput) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one candidate required", domain.ErrInvalidArgument)
	}
	if s.MaxPerBatch > 0 && len(in) > s.MaxPerBatch {
		return nil, fmt.Errorf("%w: at most %d candidates per batch", domain.ErrInvalidArgument, s.MaxPerBatch)
	}
	if _, err := s.Jobs.Get(ctx, jobID); err != nil {
		return nil, err
	}
	for i, c := range in {
		if s.MaxCVChars > 0 && len([]rune(c.CVText)) > s.MaxCVChars {
			return nil, fmt.Errorf("%w: candidate %d cv_text exceeds %d characters", domain.ErrInvalidArgument, i, s.MaxCVChars)
		}
	}

	now := time.Now().UTC()
	ids := make([]string, 0, len(in))
	for _, c := range in {
		cand := domain.Candidate{
			JobID:            jobID,
			CVText:           textx.SanitizeText(c.CVText),
			DisplayName:      c.DisplayName,
			Artifacts:        c.Artifacts,
			CounterfactualOf: c.CounterfactualOf,
			CreatedAt:        now,
		}
		id, err := s.put(ctx, cand)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	obsctx.LoggerFromContext(ctx).Info("candidates added", "job_id", jobID, "count", len(ids))
	return ids, nil
}

func (s CandidateService) put(ctx domain.Context, c domain.Candidate) (string, error) {
	for i := 0; i < idAttempts; i++ {
		c.ID = newCandidateID()
		err := s.Candidates.Put(ctx, c)
		if err == nil {
			return c.ID, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", fmt.Errorf("op=candidate.add: %w", err)
		}
	}
	return "", fmt.Errorf("op=candidate.add: id space exhausted: %w", domain.ErrConflict)
}

// Get loads a candidate by id.
func (s CandidateService) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	return s.Candidates.Get(ctx, id)
}
