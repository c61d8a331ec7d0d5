package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

func TestDefaultWeights(t *testing.T) {
	cases := []struct {
		role string
		sys  float64
		prod float64
	}{
		{"backend engineer", 0.35, 0.20},
		{"frontend developer", 0.25, 0.15},
		{"data engineer", 0.30, 0.20},
		{"devops engineer", 0.25, 0.35},
		{"frontend on a data platform", 0.25, 0.15},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			w := DefaultWeights(tc.role)
			assert.InDelta(t, tc.sys, w[domain.KeySysDesign], 1e-9)
			assert.InDelta(t, tc.prod, w[domain.KeyProdOwnership], 1e-9)
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestDefaultWeights_ReturnsCopy(t *testing.T) {
	w := DefaultWeights("")
	w[domain.KeySysDesign] = 99
	assert.InDelta(t, 0.35, DefaultWeights("")[domain.KeySysDesign], 1e-9)
}

func TestResolveWeights(t *testing.T) {
	rubric := []domain.RubricItem{
		{Key: "sys_design", Weight: 0.5},
		{Key: "leadership", Weight: 0.3},
		{Key: "code_quality", Weight: 0.2},
	}
	w := ResolveWeights(rubric, "frontend")
	assert.Equal(t, map[string]float64{"sys_design": 0.5, "code_quality": 0.2}, w)
	assert.Equal(t, []string{"sys_design", "code_quality"}, ScoredKeys(w))

	fallback := ResolveWeights([]domain.RubricItem{{Key: "leadership", Weight: 1}}, "devops")
	assert.InDelta(t, 0.35, fallback[domain.KeyProdOwnership], 1e-9)
	assert.Len(t, ScoredKeys(fallback), 4)

	assert.Len(t, ResolveWeights(nil, ""), 4)
}

func TestScoredKeys_KeepsZeroWeights(t *testing.T) {
	w := ResolveWeights([]domain.RubricItem{
		{Key: "lang_stack", Weight: 0},
		{Key: "sys_design", Weight: 1},
	}, "")
	assert.Equal(t, []string{"sys_design", "lang_stack"}, ScoredKeys(w))
	assert.Equal(t, 0.0, Total([]domain.CriterionScore{{Key: "lang_stack", Score: 5}}, map[string]float64{"lang_stack": 0}))
}
