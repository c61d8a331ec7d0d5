// Package evidence checks that criterion evidence spans are grounded in the CV text.
package evidence

import (
	"strings"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/pkg/textx"
)

const (
	minTokenLen      = 3
	overlapThreshold = 0.7
)

// Verify reports whether span is supported by cvText: either the normalized
// span is a substring of the normalized text, or at least 70% of the span's
// tokens (3+ characters) also appear in the text. An empty span fails.
func Verify(cvText, span string) bool {
	s := textx.Normalize(span)
	if s == "" {
		return false
	}
	cv := textx.Normalize(cvText)
	if strings.Contains(cv, s) {
		return true
	}
	spanTokens := longTokens(s)
	if len(spanTokens) == 0 {
		return false
	}
	cvTokens := map[string]struct{}{}
	for _, t := range longTokens(cv) {
		cvTokens[t] = struct{}{}
	}
	shared := 0
	for _, t := range spanTokens {
		if _, ok := cvTokens[t]; ok {
			shared++
		}
	}
	return float64(shared)/float64(len(spanTokens)) >= overlapThreshold
}

func longTokens(s string) []string {
	var out []string
	for _, w := range textx.Words(s) {
		if len([]rune(w)) >= minTokenLen {
			out = append(out, w)
		}
	}
	return out
}

// Failure is one criterion whose evidence could not be verified.
type Failure struct {
	Key   string
	Empty bool
}

// Check verifies each criterion's evidence span against cvText and returns
// the failing criteria in input order.
func Check(cvText string, criteria []domain.CriterionScore) []Failure {
	var out []Failure
	for _, c := range criteria {
		if Verify(cvText, c.EvidenceSpan) {
			continue
		}
		out = append(out, Failure{Key: c.Key, Empty: strings.TrimSpace(c.EvidenceSpan) == ""})
	}
	return out
}

// Flag folds failures into a single NO_EVIDENCE flag. Severity is info when
// every failure is an empty span and warning when any non-empty span is
// unsupported. It returns false when there is nothing to flag.
func Flag(candidateID string, failures []Failure) (domain.EthicsFlag, bool) {
	if len(failures) == 0 {
		return domain.EthicsFlag{}, false
	}
	keys := make([]string, 0, len(failures))
	sev := domain.SeverityInfo
	for _, f := range failures {
		keys = append(keys, f.Key)
		if !f.Empty {
			sev = domain.SeverityWarning
		}
	}
	return domain.EthicsFlag{
		CandidateID: candidateID,
		Type:        domain.FlagNoEvidence,
		Severity:    sev,
		Message:     "Evidence not found in CV for: " + strings.Join(keys, ", "),
		Details:     map[string]any{"criteria": keys},
	}, true
}
