package fairness

import (
	"fmt"
	"math"
	"strings"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

// Flag thresholds.
const (
	RankWarnPositions  = 2
	RankErrorPositions = 4
	MaxListedProxies   = 3
)

// RankDeltaFlag emits BLINDING_DELTA when the candidate moved at least two
// positions; four or more is an error.
func RankDeltaFlag(candidateID string, rankBefore, rankAfter int) (domain.EthicsFlag, bool) {
	d := DeltaPositions(rankBefore, rankAfter)
	ad := d
	if ad < 0 {
		ad = -ad
	}
	if ad < RankWarnPositions {
		return domain.EthicsFlag{}, false
	}
	sev := domain.SeverityWarning
	if ad >= RankErrorPositions {
		sev = domain.SeverityError
	}
	return domain.EthicsFlag{
		CandidateID: candidateID,
		Type:        domain.FlagBlindingDelta,
		Severity:    sev,
		Message:     fmt.Sprintf("Rank changed under blinding by %+d positions.", d),
		Details: map[string]any{
			"basis":           "rank",
			"delta_positions": d,
			"rank_before":     rankBefore,
			"rank_after":      rankAfter,
		},
	}, true
}

// ScoreDeltaFlag emits a warning BLINDING_DELTA when the total moved by at
// least threshold. A non-positive threshold disables it.
func ScoreDeltaFlag(candidateID string, totalBefore, totalAfter, threshold float64) (domain.EthicsFlag, bool) {
	if threshold <= 0 {
		return domain.EthicsFlag{}, false
	}
	delta := math.Round((totalAfter-totalBefore)*100) / 100
	if math.Abs(delta) < threshold {
		return domain.EthicsFlag{}, false
	}
	return domain.EthicsFlag{
		CandidateID: candidateID,
		Type:        domain.FlagBlindingDelta,
		Severity:    domain.SeverityWarning,
		Message:     fmt.Sprintf("Total score changed under blinding by %+.2f.", delta),
		Details: map[string]any{
			"basis":        "score",
			"delta":        delta,
			"total_before": totalBefore,
			"total_after":  totalAfter,
			"threshold":    threshold,
		},
	}, true
}

// ProxyFlag emits PROXY_SIGNAL_REMOVED listing up to three removed proxies.
func ProxyFlag(candidateID string, removed []string) (domain.EthicsFlag, bool) {
	if len(removed) == 0 {
		return domain.EthicsFlag{}, false
	}
	listed := removed
	if len(listed) > MaxListedProxies {
		listed = listed[:MaxListedProxies]
	}
	listed = append([]string(nil), listed...)
	return domain.EthicsFlag{
		CandidateID: candidateID,
		Type:        domain.FlagProxySignalRemoved,
		Severity:    domain.SeverityInfo,
		Message:     "Blinding removed proxy signals: " + strings.Join(listed, ", "),
		Details: map[string]any{
			"removed":       listed,
			"removed_count": len(removed),
		},
	}, true
}

// ProxyEvidenceFlag emits PROXY_EVIDENCE when criterion evidence cites a proxy.
// cited maps criterion key to the proxies its evidence mentions.
func ProxyEvidenceFlag(candidateID string, keys []string, cited map[string][]string) (domain.EthicsFlag, bool) {
	var hit []string
	var proxies []string
	seen := map[string]struct{}{}
	for _, k := range keys {
		ps := cited[k]
		if len(ps) == 0 {
			continue
		}
		hit = append(hit, k)
		for _, p := range ps {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				proxies = append(proxies, p)
			}
		}
	}
	if len(hit) == 0 {
		return domain.EthicsFlag{}, false
	}
	return domain.EthicsFlag{
		CandidateID: candidateID,
		Type:        domain.FlagProxyEvidence,
		Severity:    domain.SeverityWarning,
		Message:     "Evidence cites proxy signals: " + strings.Join(proxies, ", "),
		Details: map[string]any{
			"criteria": hit,
			"proxies":  proxies,
		},
	}, true
}
