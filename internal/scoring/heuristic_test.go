package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

func TestHeuristicScorer_BackendScenario(t *testing.T) {
	rubric := []domain.RubricItem{
		{Key: "sys_design", Weight: 0.4},
		{Key: "prod_ownership", Weight: 0.3},
		{Key: "lang_stack", Weight: 0.2},
		{Key: "code_quality", Weight: 0.1},
	}
	role := "backend engineer"
	weights := ResolveWeights(rubric, role)
	req := domain.ScoreRequest{
		RoleContext: role,
		Rubric:      rubric,
		Keys:        ScoredKeys(weights),
		CVText:      "Alice has 5 years experience in Python, Go, and system design.",
	}
	h := NewHeuristicScorer(BuildModel(role))
	assert.Equal(t, HeuristicName, h.Name())

	out := h.Score(context.Background(), req)
	require.Equal(t, domain.OutcomeOK, out.Status)
	require.Len(t, out.Criteria, 4)

	byKey := map[string]domain.CriterionScore{}
	for _, c := range out.Criteria {
		byKey[c.Key] = c
	}
	assert.Equal(t, "python, go", byKey["lang_stack"].EvidenceSpan)
	assert.Equal(t, 2.26, byKey["lang_stack"].Score)
	assert.Equal(t, "system design", byKey["sys_design"].EvidenceSpan)
	assert.Equal(t, 1.3, byKey["sys_design"].Score)
	assert.Equal(t, 0.0, byKey["prod_ownership"].Score)
	assert.Equal(t, "", byKey["code_quality"].EvidenceSpan)

	total := Total(out.Criteria, weights)
	assert.Equal(t, 0.97, total)
	assert.GreaterOrEqual(t, total, 0.0)
	assert.LessOrEqual(t, total, 5.0)

	again := NewHeuristicScorer(BuildModel(role)).Score(context.Background(), req)
	assert.Equal(t, out, again)
}

func TestHeuristicScorer_KeysOrder(t *testing.T) {
	h := NewHeuristicScorer(BuildModel(""))
	out := h.Score(context.Background(), domain.ScoreRequest{Keys: []string{"code_quality", "sys_design"}, CVText: "unit test"})
	require.Len(t, out.Criteria, 2)
	assert.Equal(t, "code_quality", out.Criteria[0].Key)
	assert.Equal(t, "sys_design", out.Criteria[1].Key)
	assert.Equal(t, "unit test", out.Criteria[0].EvidenceSpan)
}
