package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

func crit(kv ...any) []domain.CriterionScore {
	var out []domain.CriterionScore
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, domain.CriterionScore{Key: kv[i].(string), Score: kv[i+1].(float64)})
	}
	return out
}

func TestTotal(t *testing.T) {
	cases := []struct {
		name    string
		scores  []domain.CriterionScore
		weights map[string]float64
		want    float64
	}{
		{"weighted mean", crit("sys_design", 4.0, "lang_stack", 2.0), map[string]float64{"sys_design": 0.75, "lang_stack": 0.25}, 3.5},
		{"unknown criteria skipped", crit("sys_design", 4.0, "other", 0.0), map[string]float64{"sys_design": 1}, 4.0},
		{"zero weights total zero", crit("sys_design", 4.0, "lang_stack", 1.0), map[string]float64{"sys_design": 0, "lang_stack": 0}, 0},
		{"no criteria", nil, map[string]float64{"sys_design": 1}, 0},
		{"rounded", crit("sys_design", 1.0, "lang_stack", 2.0, "code_quality", 2.0), map[string]float64{"sys_design": 1, "lang_stack": 1, "code_quality": 1}, 1.67},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Total(tc.scores, tc.weights))
		})
	}
}

func TestTotal_ScaleInvariant(t *testing.T) {
	scores := crit("sys_design", 1.3, "prod_ownership", 0.0, "lang_stack", 2.26, "code_quality", 3.49)
	w := map[string]float64{"sys_design": 0.4, "prod_ownership": 0.3, "lang_stack": 0.2, "code_quality": 0.1}
	scaled := map[string]float64{}
	for k, v := range w {
		scaled[k] = v * 7
	}
	assert.Equal(t, Total(scores, w), Total(scores, scaled))
}
