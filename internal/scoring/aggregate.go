package scoring

import "github.com/fairyhunter13/ai-cv-fairness/internal/domain"

// Total returns the weighted mean of the criteria whose key has a weight,
// rounded to two decimals. Criteria without a weight are skipped. A zero
// weight sum divides by one, so all-zero weights total 0.
func Total(criteria []domain.CriterionScore, weights map[string]float64) float64 {
	var num, wsum float64
	for _, c := range criteria {
		w, ok := weights[c.Key]
		if !ok {
			continue
		}
		num += w * c.Score
		wsum += w
	}
	if wsum == 0 {
		wsum = 1
	}
	return Round2(num / wsum)
}
