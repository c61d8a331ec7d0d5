// Package memory provides process-lifetime repositories. Every record is
// deep-copied on the way in and out so callers never share state with the store.
package memory

import "github.com/fairyhunter13/ai-cv-fairness/internal/domain"

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyJob(j domain.Job) domain.Job {
	j.Rubric = append([]domain.RubricItem(nil), j.Rubric...)
	return j
}

func copyCandidate(c domain.Candidate) domain.Candidate {
	c.DisplayName = copyStr(c.DisplayName)
	c.CounterfactualOf = copyStr(c.CounterfactualOf)
	c.Artifacts = copyMap(c.Artifacts)
	return c
}

func copyRanks(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBatch(b domain.Batch) domain.Batch {
	if b.Candidates != nil {
		recs := make([]domain.CandidateRecord, len(b.Candidates))
		for i, r := range b.Candidates {
			r.DisplayName = copyStr(r.DisplayName)
			r.Flags = append([]string(nil), r.Flags...)
			recs[i] = r
		}
		b.Candidates = recs
	}
	b.RanksBefore = copyRanks(b.RanksBefore)
	b.RanksAfter = copyRanks(b.RanksAfter)
	if b.SpearmanRho != nil {
		v := *b.SpearmanRho
		b.SpearmanRho = &v
	}
	if b.Flags != nil {
		flags := make([]domain.EthicsFlag, len(b.Flags))
		for i, f := range b.Flags {
			f.Details = copyMap(f.Details)
			flags[i] = f
		}
		b.Flags = flags
	}
	if b.Scores != nil {
		scores := make([]domain.CandidateScore, len(b.Scores))
		for i, s := range b.Scores {
			s.ByCriterion = append([]domain.CriterionScore(nil), s.ByCriterion...)
			s.DisplayName = copyStr(s.DisplayName)
			scores[i] = s
		}
		b.Scores = scores
	}
	return b
}
