package scoring

import "github.com/fairyhunter13/ai-cv-fairness/internal/domain"

// DefaultWeights returns the role-inferred weight preset for roleContext.
// Each preset sums to 1.0.
func DefaultWeights(roleContext string) map[string]float64 {
	t := signals()
	active := map[string]bool{}
	for _, d := range Disciplines(roleContext) {
		active[d] = true
	}
	name := "default"
	for _, p := range t.Weights.Precedence {
		if active[p] {
			name = p
			break
		}
	}
	preset := t.Weights.Presets[name]
	out := make(map[string]float64, len(preset))
	for k, v := range preset {
		out[k] = v
	}
	return out
}

// ResolveWeights returns the weights used for a job: the rubric's canonical
// bucket keys, or the role-inferred defaults when the rubric names none.
// Unknown rubric keys are ignored.
func ResolveWeights(rubric []domain.RubricItem, roleContext string) map[string]float64 {
	out := map[string]float64{}
	for _, r := range rubric {
		if domain.IsBucketKey(r.Key) {
			out[r.Key] = r.Weight
		}
	}
	if len(out) == 0 {
		return DefaultWeights(roleContext)
	}
	return out
}

// ScoredKeys returns the canonical bucket keys present in weights, in canonical order.
func ScoredKeys(weights map[string]float64) []string {
	keys := make([]string, 0, len(domain.BucketKeys))
	for _, k := range domain.BucketKeys {
		if _, ok := weights[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
