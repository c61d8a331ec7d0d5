package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

func TestRankDeltaFlag(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		before int
		after  int
		want   bool
		sev    domain.Severity
	}{
		{"unchanged", 3, 3, false, ""},
		{"one position", 3, 2, false, ""},
		{"two positions up", 4, 2, true, domain.SeverityWarning},
		{"three positions down", 1, 4, true, domain.SeverityWarning},
		{"four positions", 5, 1, true, domain.SeverityError},
		{"six positions down", 1, 7, true, domain.SeverityError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f, ok := RankDeltaFlag("cand_x", tc.before, tc.after)
			assert.Equal(t, tc.want, ok)
			if !ok {
				return
			}
			assert.Equal(t, domain.FlagBlindingDelta, f.Type)
			assert.Equal(t, tc.sev, f.Severity)
			assert.Equal(t, tc.before-tc.after, f.Details["delta_positions"])
			assert.Equal(t, "rank", f.Details["basis"])
		})
	}
}

func TestRankDeltaFlag_Message(t *testing.T) {
	t.Parallel()
	f, ok := RankDeltaFlag("cand_x", 4, 2)
	require.True(t, ok)
	assert.Equal(t, "Rank changed under blinding by +2 positions.", f.Message)
}

func TestScoreDeltaFlag(t *testing.T) {
	t.Parallel()
	_, ok := ScoreDeltaFlag("c", 2.0, 2.4, 0.5)
	assert.False(t, ok)

	f, ok := ScoreDeltaFlag("c", 2.0, 1.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, f.Severity)
	assert.Equal(t, "score", f.Details["basis"])
	assert.InDelta(t, -0.5, f.Details["delta"].(float64), 1e-9)

	_, ok = ScoreDeltaFlag("c", 0, 5, 0)
	assert.False(t, ok)
}

func TestProxyFlag(t *testing.T) {
	t.Parallel()
	_, ok := ProxyFlag("c", nil)
	assert.False(t, ok)

	f, ok := ProxyFlag("c", []string{"MIT", "email", "phone", "Stanford"})
	require.True(t, ok)
	assert.Equal(t, domain.FlagProxySignalRemoved, f.Type)
	assert.Equal(t, domain.SeverityInfo, f.Severity)
	assert.Equal(t, []string{"MIT", "email", "phone"}, f.Details["removed"])
	assert.Equal(t, 4, f.Details["removed_count"])
}

func TestProxyEvidenceFlag(t *testing.T) {
	t.Parallel()
	keys := []string{"sys_design", "lang_stack"}
	_, ok := ProxyEvidenceFlag("c", keys, map[string][]string{})
	assert.False(t, ok)

	f, ok := ProxyEvidenceFlag("c", keys, map[string][]string{"lang_stack": {"MIT"}, "sys_design": {"MIT", "london"}})
	require.True(t, ok)
	assert.Equal(t, domain.FlagProxyEvidence, f.Type)
	assert.Equal(t, []string{"sys_design", "lang_stack"}, f.Details["criteria"])
	assert.Equal(t, []string{"MIT", "london"}, f.Details["proxies"])
}
