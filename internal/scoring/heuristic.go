package scoring

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

// HeuristicName identifies the keyword scorer in batches and metrics.
const HeuristicName = "heuristic"

// HeuristicScorer scores buckets with the keyword model. It never fails.
type HeuristicScorer struct {
	model Model
}

var _ domain.CriterionScorer = HeuristicScorer{}

// NewHeuristicScorer constructs a HeuristicScorer over a prebuilt model.
func NewHeuristicScorer(model Model) HeuristicScorer {
	return HeuristicScorer{model: model}
}

// Name implements domain.CriterionScorer.
func (HeuristicScorer) Name() string { return HeuristicName }

// Score implements domain.CriterionScorer.
func (h HeuristicScorer) Score(_ domain.Context, req domain.ScoreRequest) domain.ScoreOutcome {
	out := make([]domain.CriterionScore, 0, len(req.Keys))
	for _, key := range req.Keys {
		score, labels := ScoreBucket(req.CVText, h.model.Detectors[key], h.model.Pairs[key])
		out = append(out, domain.CriterionScore{
			Key:          key,
			Score:        score,
			EvidenceSpan: strings.Join(labels, ", "),
			Rationale:    rationale(key, labels),
		})
	}
	return domain.ScoreOutcome{Status: domain.OutcomeOK, Criteria: out}
}

func rationale(key string, labels []string) string {
	if len(labels) == 0 {
		return fmt.Sprintf("no %s signals found", key)
	}
	return fmt.Sprintf("%s signals: %s", key, strings.Join(labels, ", "))
}
