package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

func sampleBatch() domain.Batch {
	rho := 0.5
	return domain.Batch{
		ID:          "batch_01",
		JobID:       "job_0001",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Scorer:      "heuristic",
		RanksBefore: map[string]int{"a": 1, "b": 2, "c": 3},
		RanksAfter:  map[string]int{"a": 2, "b": 1, "c": 3},
		SpearmanRho: &rho,
		Candidates: []domain.CandidateRecord{
			{CandidateID: "a", TotalBefore: 3, TotalAfter: 2.5, Delta: -0.5, RankBefore: 1, RankAfter: 2, DeltaPositions: -1, Flags: []string{"PROXY_SIGNAL_REMOVED", "NO_EVIDENCE"}},
			{CandidateID: "b", TotalBefore: 2.75, TotalAfter: 2.75, RankBefore: 2, RankAfter: 1, DeltaPositions: 1},
			{CandidateID: "c", TotalBefore: 1, TotalAfter: 1.25, Delta: 0.25, RankBefore: 3, RankAfter: 3, Flags: []string{}},
		},
		Flags: []domain.EthicsFlag{
			{CandidateID: "a", Type: domain.FlagProxySignalRemoved, Severity: domain.SeverityInfo},
			{CandidateID: "a", Type: domain.FlagNoEvidence, Severity: domain.SeverityWarning},
		},
	}
}

func TestBuildReport(t *testing.T) {
	rep, err := BuildReport(sampleBatch(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.NCandidates)
	assert.Equal(t, 3, rep.K)
	assert.Equal(t, 3, rep.TopKOverlapCount)
	assert.Equal(t, 1.0, rep.TopKOverlapRatio)
	assert.Equal(t, -0.083, rep.MeanDelta)
	assert.Equal(t, 0.25, rep.MeanAbsDelta)
	assert.Equal(t, map[string]int{"PROXY_SIGNAL_REMOVED": 1, "NO_EVIDENCE": 1}, rep.FlagsByType)
	assert.Equal(t, map[string]int{"info": 1, "warning": 1}, rep.FlagsBySeverity)
	require.Len(t, rep.PerCandidate, 3)
	assert.Equal(t, []string{}, rep.PerCandidate[1].Flags)

	rep, err = BuildReport(sampleBatch(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TopKOverlapCount)
	assert.Equal(t, 0.0, rep.TopKOverlapRatio)

	rep, err = BuildReport(sampleBatch(), 50)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.K)
}

func TestBuildReport_Empty(t *testing.T) {
	_, err := BuildReport(domain.Batch{ID: "batch_x"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestReportService(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	require.NoError(t, r.batches.Put(ctx, sampleBatch()))
	svc := NewReportService(r.batches)

	rep, err := svc.Report(ctx, "batch_01", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.K)
	assert.InDelta(t, 0.5, *rep.SpearmanRho, 1e-9)

	_, err = svc.Report(ctx, "batch_missing", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, BatchSummary{
		BatchID:     "batch_01",
		JobID:       "job_0001",
		CreatedAt:   "2024-05-01T10:00:00Z",
		Scorer:      "heuristic",
		NCandidates: 3,
		NFlags:      2,
		SpearmanRho: list[0].SpearmanRho,
	}, list[0])
}

func TestExport(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	require.NoError(t, r.batches.Put(ctx, sampleBatch()))
	svc := NewExportService(r.batches)

	raw, err := svc.JSON(ctx, "batch_01")
	require.NoError(t, err)
	var got domain.Batch
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "batch_01", got.ID)
	assert.Len(t, got.Candidates, 3)

	out, err := svc.CSV(ctx, "batch_01")
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"batch_01", "2024-05-01T10:00:00Z", "job_0001", "a", "3.00", "2.50", "-0.50", "PROXY_SIGNAL_REMOVED,NO_EVIDENCE"}, rows[1])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "0.25", rows[3][6])

	_, err = svc.CSV(ctx, "batch_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
