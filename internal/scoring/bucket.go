package scoring

import (
	"math"
	"sort"
	"strings"
)

// Bucket curve constants.
const (
	curveSlope       = 1.2
	curveRef         = 4.0
	cooccurWindow    = 64
	cooccurBonus     = 0.3
	maxScore         = 5.0
	maxEvidenceLabel = 3
)

// ScoreBucket scores text against one bucket's detectors and pairs.
// It returns the score in [0,5] and up to three matched texts, longest first.
// Each detector counts once; the evidence is the text as it appears in the CV,
// so a plural hit is reported in its plural form.
func ScoreBucket(text string, detectors []Detector, pairs []CooccurrencePair) (float64, []string) {
	hits := 0
	var matched []string
	seenLabel := map[string]struct{}{}
	seenText := map[string]struct{}{}
	for _, d := range detectors {
		if _, ok := seenLabel[d.Label]; ok {
			continue
		}
		hit, ok := d.Match(text)
		if !ok {
			continue
		}
		seenLabel[d.Label] = struct{}{}
		hits++
		if _, dup := seenText[hit]; !dup {
			seenText[hit] = struct{}{}
			matched = append(matched, hit)
		}
	}

	score := BaseScore(hits)
	if hasCooccurrence(strings.ToLower(text), pairs) {
		score = Round2(score + cooccurBonus)
	}
	if score > maxScore {
		score = maxScore
	}
	return score, evidenceLabels(matched)
}

// BaseScore maps k unique hits onto the saturating curve 5*(1-e^(-1.2k/4)).
func BaseScore(k int) float64 {
	if k <= 0 {
		return 0
	}
	return Round2(maxScore * (1 - math.Exp(-curveSlope*float64(k)/curveRef)))
}

func hasCooccurrence(lower string, pairs []CooccurrencePair) bool {
	for _, p := range pairs {
		a := strings.Index(lower, p.A)
		if a < 0 {
			continue
		}
		b := strings.Index(lower, p.B)
		if b < 0 {
			continue
		}
		if abs(a-b) <= cooccurWindow {
			return true
		}
	}
	return false
}

func evidenceLabels(matched []string) []string {
	out := append([]string(nil), matched...)
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	if len(out) > maxEvidenceLabel {
		out = out[:maxEvidenceLabel]
	}
	return out
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round3 rounds v to three decimals.
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
