package usecase

import (
	"fmt"
	"math"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/internal/fairness"
	"github.com/fairyhunter13/ai-cv-fairness/internal/scoring"
)

// ReportRow is one candidate line of a batch report.
type ReportRow struct {
	CandidateID    string   `json:"candidate_id"`
	DisplayName    *string  `json:"display_name,omitempty"`
	TotalBefore    float64  `json:"total_before"`
	TotalAfter     float64  `json:"total_after"`
	Delta          float64  `json:"delta"`
	RankBefore     int      `json:"rank_before"`
	RankAfter      int      `json:"rank_after"`
	DeltaPositions int      `json:"delta_positions"`
	Flags          []string `json:"flags"`
}

// Report summarizes the blinding audit of one batch.
type Report struct {
	BatchID          string         `json:"batch_id"`
	JobID            string         `json:"job_id"`
	Scorer           string         `json:"scorer"`
	NCandidates      int            `json:"n_candidates"`
	K                int            `json:"k"`
	SpearmanRho      *float64       `json:"spearman_rho"`
	TopKOverlapCount int            `json:"topk_overlap_count"`
	TopKOverlapRatio float64        `json:"topk_overlap_ratio"`
	MeanDelta        float64        `json:"mean_delta"`
	MeanAbsDelta     float64        `json:"mean_abs_delta"`
	FlagsByType      map[string]int `json:"flags_by_type"`
	FlagsBySeverity  map[string]int `json:"flags_by_severity"`
	PerCandidate     []ReportRow    `json:"per_candidate"`
}

// BatchSummary is one entry of the batch listing.
type BatchSummary struct {
	BatchID     string   `json:"batch_id"`
	JobID       string   `json:"job_id"`
	CreatedAt   string   `json:"created_at"`
	Scorer      string   `json:"scorer"`
	NCandidates int      `json:"n_candidates"`
	NFlags      int      `json:"n_flags"`
	SpearmanRho *float64 `json:"spearman_rho"`
}

// BuildReport derives the report of b for top-K size k. k <= 0 selects
// min(5, n); larger values are clamped to n. A batch without candidates is invalid.
func BuildReport(b domain.Batch, k int) (Report, error) {
	n := len(b.Candidates)
	if n == 0 {
		return Report{}, fmt.Errorf("%w: batch %s has no candidates", domain.ErrInvalidArgument, b.ID)
	}
	k = fairness.ClampK(k, n)
	count, ratio := fairness.TopKOverlap(b.RanksBefore, b.RanksAfter, k)

	rep := Report{
		BatchID:          b.ID,
		JobID:            b.JobID,
		Scorer:           b.Scorer,
		NCandidates:      n,
		K:                k,
		SpearmanRho:      b.SpearmanRho,
		TopKOverlapCount: count,
		TopKOverlapRatio: scoring.Round3(ratio),
		FlagsByType:      map[string]int{},
		FlagsBySeverity:  map[string]int{},
		PerCandidate:     make([]ReportRow, 0, n),
	}
	if rep.SpearmanRho != nil {
		rho := scoring.Round3(*rep.SpearmanRho)
		rep.SpearmanRho = &rho
	}

	var sum, sumAbs float64
	for _, c := range b.Candidates {
		sum += c.Delta
		sumAbs += math.Abs(c.Delta)
		flags := c.Flags
		if flags == nil {
			flags = []string{}
		}
		rep.PerCandidate = append(rep.PerCandidate, ReportRow{
			CandidateID:    c.CandidateID,
			DisplayName:    c.DisplayName,
			TotalBefore:    c.TotalBefore,
			TotalAfter:     c.TotalAfter,
			Delta:          c.Delta,
			RankBefore:     c.RankBefore,
			RankAfter:      c.RankAfter,
			DeltaPositions: c.DeltaPositions,
			Flags:          flags,
		})
	}
	rep.MeanDelta = scoring.Round3(sum / float64(n))
	rep.MeanAbsDelta = scoring.Round3(sumAbs / float64(n))

	for _, f := range b.Flags {
		rep.FlagsByType[string(f.Type)]++
		rep.FlagsBySeverity[string(f.Severity)]++
	}
	return rep, nil
}

// ReportService serves batch reports and listings.
type ReportService struct {
	Batches domain.BatchRepository
}

// NewReportService constructs a ReportService with the given repository.
func NewReportService(b domain.BatchRepository) ReportService { return ReportService{Batches: b} }

// Report loads a batch and builds its report.
func (s ReportService) Report(ctx domain.Context, batchID string, k int) (Report, error) {
	ctx, span := otel.Tracer("usecase.report").Start(ctx, "report.Report")
	defer span.End()
	b, err := s.Batches.Get(ctx, batchID)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(b, k)
}

// List returns summaries of every stored batch, newest first.
func (s ReportService) List(ctx domain.Context) ([]BatchSummary, error) {
	bs, err := s.Batches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=report.list: %w", err)
	}
	out := make([]BatchSummary, 0, len(bs))
	for _, b := range bs {
		out = append(out, BatchSummary{
			BatchID:     b.ID,
			JobID:       b.JobID,
			CreatedAt:   b.CreatedAt.Format(timeLayout),
			Scorer:      b.Scorer,
			NCandidates: len(b.Candidates),
			NFlags:      len(b.Flags),
			SpearmanRho: b.SpearmanRho,
		})
	}
	return out, nil
}
