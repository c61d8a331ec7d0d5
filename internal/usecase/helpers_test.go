package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

type repos struct {
	jobs    *memory.JobRepo
	cands   *memory.CandidateRepo
	batches *memory.BatchRepo
}

func newRepos() repos {
	return repos{jobs: memory.NewJobRepo(), cands: memory.NewCandidateRepo(), batches: memory.NewBatchRepo()}
}

// seed creates a job and one candidate per CV text, returning the ids.
func seed(t *testing.T, r repos, role string, cvs ...string) (string, []string) {
	t.Helper()
	ctx := context.Background()
	jobID, err := NewJobService(r.jobs).Create(ctx, JobInput{Title: "Engineer", RoleContext: role})
	require.NoError(t, err)
	in := make([]CandidateInput, 0, len(cvs))
	for _, cv := range cvs {
		in = append(in, CandidateInput{CVText: cv})
	}
	ids, err := NewCandidateService(r.jobs, r.cands, 0, 0).AddBatch(ctx, jobID, in)
	require.NoError(t, err)
	return jobID, ids
}

// tableScorer scores every requested key with the value mapped from the CV text.
type tableScorer struct {
	name   string
	scores map[string]float64
	// fail lists CV texts that report the scorer as unavailable.
	fail map[string]bool
}

func (s tableScorer) Name() string { return s.name }

func (s tableScorer) Score(_ context.Context, req domain.ScoreRequest) domain.ScoreOutcome {
	if s.fail[req.CVText] {
		return domain.ScoreOutcome{Status: domain.OutcomeUnavailable, Reason: "down"}
	}
	v, ok := s.scores[req.CVText]
	if !ok {
		return domain.ScoreOutcome{Status: domain.OutcomeInvalid, Reason: "unexpected text " + req.CVText}
	}
	out := make([]domain.CriterionScore, 0, len(req.Keys))
	for _, k := range req.Keys {
		out = append(out, domain.CriterionScore{Key: k, Score: v, EvidenceSpan: firstWord(req.CVText)})
	}
	return domain.ScoreOutcome{Status: domain.OutcomeOK, Criteria: out}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockScorer) Score(ctx context.Context, req domain.ScoreRequest) domain.ScoreOutcome {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.ScoreOutcome)
}

func flagsOf(flags []domain.EthicsFlag, candidateID string) []domain.EthicsFlag {
	var out []domain.EthicsFlag
	for _, f := range flags {
		if f.CandidateID == candidateID {
			out = append(out, f)
		}
	}
	return out
}
