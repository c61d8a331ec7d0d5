package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/internal/evidence"
	"github.com/fairyhunter13/ai-cv-fairness/internal/fairness"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
	"github.com/fairyhunter13/ai-cv-fairness/internal/redact"
	"github.com/fairyhunter13/ai-cv-fairness/internal/scoring"
	"github.com/fairyhunter13/ai-cv-fairness/pkg/textx"
)

// MixedScorer names a batch where some candidates fell back to the heuristic scorer.
const MixedScorer = "mixed"

// AuditOptions tunes flag synthesis.
type AuditOptions struct {
	// ScoreDeltaThreshold emits a score-basis BLINDING_DELTA when |delta| reaches it. 0 disables.
	ScoreDeltaThreshold float64
	DebugFlags          bool
}

// RunResult is the outcome of one scoring run.
type RunResult struct {
	BatchID string                  `json:"batch_id"`
	Scores  []domain.CandidateScore `json:"scores"`
	Flags   []domain.EthicsFlag     `json:"ethics_flags"`
	Audit   Report                  `json:"audit"`
}

// ScoringService runs the raw-versus-blinded scoring audit over a set of candidates.
type ScoringService struct {
	Jobs       domain.JobRepository
	Candidates domain.CandidateRepository
	Batches    domain.BatchRepository
	// Alternate is an optional criterion scorer tried before the heuristic.
	Alternate domain.CriterionScorer
	Options   AuditOptions
}

// NewScoringService constructs a ScoringService. alt may be nil.
func NewScoringService(j domain.JobRepository, c domain.CandidateRepository, b domain.BatchRepository, alt domain.CriterionScorer, opts AuditOptions) ScoringService {
	return ScoringService{Jobs: j, Candidates: c, Batches: b, Alternate: alt, Options: opts}
}

type candidateRun struct {
	cand      domain.Candidate
	raw       string
	blinded   string
	scorer    string
	before    []domain.CriterionScore
	after     []domain.CriterionScore
	total     float64
	totalBlnd float64
}

// Run scores every candidate on raw and blinded text, audits the ranking
// shift, and stores the resulting batch. Nothing is stored unless the whole
// run succeeds.
func (s ScoringService) Run(ctx domain.Context, jobID string, candidateIDs []string) (RunResult, error) {
	tracer := otel.Tracer("usecase.scoring")
	ctx, span := tracer.Start(ctx, "scoring.Run")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID), attribute.Int("candidates", len(candidateIDs)))

	if len(candidateIDs) == 0 {
		return RunResult{}, fmt.Errorf("%w: candidate_ids required", domain.ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, dup := seen[id]; dup {
			return RunResult{}, fmt.Errorf("%w: duplicate candidate id %q", domain.ErrInvalidArgument, id)
		}
		seen[id] = struct{}{}
	}

	job, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return RunResult{}, err
	}
	cands := make([]domain.Candidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		c, err := s.Candidates.Get(ctx, id)
		if err != nil {
			return RunResult{}, err
		}
		cands = append(cands, c)
	}

	ctx, lg := obsctx.WithLogAttrs(ctx, "job_id", jobID)

	weights := scoring.ResolveWeights(job.Rubric, job.RoleContext)
	keys := scoring.ScoredKeys(weights)
	heuristic := scoring.NewHeuristicScorer(scoring.BuildModel(job.RoleContext))

	runs := make([]candidateRun, 0, len(cands))
	for _, c := range cands {
		if c.JobID != job.ID {
			lg.Warn("candidate belongs to another job", "candidate_id", c.ID, "candidate_job_id", c.JobID)
		}
		raw := textx.SanitizeText(c.CVText)
		cr := candidateRun{cand: c, raw: raw, blinded: redact.Blind(raw)}
		base := domain.ScoreRequest{JobTitle: job.Title, RoleContext: job.RoleContext, Rubric: job.Rubric, Keys: keys}
		cr.scorer, cr.before, cr.after = s.scorePair(ctx, heuristic, base, cr.raw, cr.blinded)
		cr.total = scoring.Total(cr.before, weights)
		cr.totalBlnd = scoring.Total(cr.after, weights)
		runs = append(runs, cr)
	}

	batch := s.audit(job, runs)
	if err := s.store(ctx, &batch); err != nil {
		return RunResult{}, err
	}
	span.SetAttributes(attribute.String("batch.id", batch.ID))

	observability.RecordBatch(batch.Scorer, len(runs), batch.SpearmanRho)
	for _, f := range batch.Flags {
		observability.RecordFlag(string(f.Type), string(f.Severity))
	}
	lg.Info("batch scored",
		"batch_id", batch.ID,
		"scorer", batch.Scorer,
		"candidates", len(runs),
		"flags", len(batch.Flags))

	rep, err := BuildReport(batch, 0)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{BatchID: batch.ID, Scores: batch.Scores, Flags: batch.Flags, Audit: rep}, nil
}

// store inserts the batch under a fresh id, regenerating the id on conflict.
func (s ScoringService) store(ctx domain.Context, b *domain.Batch) error {
	for i := 0; i < idAttempts; i++ {
		b.ID = newBatchID()
		err := s.Batches.Put(ctx, *b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("op=scoring.run: %w", err)
		}
	}
	return fmt.Errorf("op=scoring.run: id space exhausted: %w", domain.ErrConflict)
}

// scorePair scores raw and blinded text with the same scorer. The alternate
// scorer is used only when it succeeds on both passes.
func (s ScoringService) scorePair(ctx domain.Context, heuristic scoring.HeuristicScorer, base domain.ScoreRequest, raw, blinded string) (string, []domain.CriterionScore, []domain.CriterionScore) {
	lg := obsctx.LoggerFromContext(ctx)
	if s.Alternate != nil {
		rawReq, blindReq := base, base
		rawReq.CVText, blindReq.CVText = raw, blinded
		before := s.callScorer(ctx, s.Alternate, rawReq)
		if before.Status == domain.OutcomeOK {
			after := s.callScorer(ctx, s.Alternate, blindReq)
			if after.Status == domain.OutcomeOK {
				return s.Alternate.Name(), before.Criteria, after.Criteria
			}
			before = after
		}
		lg.Warn("alternate scorer failed; using heuristic for both passes",
			"scorer", s.Alternate.Name(),
			"status", before.Status.String(),
			"reason", before.Reason)
		observability.RecordFallback(before.Status.String())
	}
	rawReq, blindReq := base, base
	rawReq.CVText, blindReq.CVText = raw, blinded
	return heuristic.Name(), s.callScorer(ctx, heuristic, rawReq).Criteria, s.callScorer(ctx, heuristic, blindReq).Criteria
}

func (s ScoringService) callScorer(ctx domain.Context, sc domain.CriterionScorer, req domain.ScoreRequest) domain.ScoreOutcome {
	start := time.Now()
	out := sc.Score(ctx, req)
	if out.Status == domain.OutcomeOK && !coversKeys(out.Criteria, req.Keys) {
		out = domain.ScoreOutcome{Status: domain.OutcomeInvalid, Reason: "criteria do not match rubric keys"}
	}
	observability.ObserveScorerCall(sc.Name(), out.Status.String(), time.Since(start))
	return out
}

// coversKeys reports whether criteria hold exactly keys, in order.
func coversKeys(criteria []domain.CriterionScore, keys []string) bool {
	if len(criteria) != len(keys) {
		return false
	}
	for i, c := range criteria {
		if c.Key != keys[i] {
			return false
		}
	}
	return true
}

// audit ranks both passes, computes the correlation, and synthesizes flags.
func (s ScoringService) audit(job domain.Job, runs []candidateRun) domain.Batch {
	totalsBefore := make(map[string]float64, len(runs))
	totalsAfter := make(map[string]float64, len(runs))
	before := make([]float64, 0, len(runs))
	after := make([]float64, 0, len(runs))
	for _, r := range runs {
		totalsBefore[r.cand.ID] = r.total
		totalsAfter[r.cand.ID] = r.totalBlnd
		before = append(before, r.total)
		after = append(after, r.totalBlnd)
	}
	ranksBefore := fairness.Rank(totalsBefore)
	ranksAfter := fairness.Rank(totalsAfter)

	batch := domain.Batch{
		JobID:       job.ID,
		CreatedAt:   time.Now().UTC(),
		RoleContext: job.RoleContext,
		RanksBefore: ranksBefore,
		RanksAfter:  ranksAfter,
		SpearmanRho: fairness.Spearman(before, after),
		Candidates:  make([]domain.CandidateRecord, 0, len(runs)),
		Scores:      make([]domain.CandidateScore, 0, len(runs)),
		Flags:       []domain.EthicsFlag{},
	}

	scorers := map[string]struct{}{}
	for _, r := range runs {
		scorers[r.scorer] = struct{}{}
		id := r.cand.ID
		rb, ra := ranksBefore[id], ranksAfter[id]
		flags := s.candidateFlags(r, rb, ra)
		batch.Flags = append(batch.Flags, flags...)

		delta := scoring.Round2(r.totalBlnd - r.total)
		observability.ObserveBlindingDelta(math.Abs(delta))
		batch.Candidates = append(batch.Candidates, domain.CandidateRecord{
			CandidateID:    id,
			DisplayName:    r.cand.DisplayName,
			TotalBefore:    r.total,
			TotalAfter:     r.totalBlnd,
			Delta:          delta,
			RankBefore:     rb,
			RankAfter:      ra,
			DeltaPositions: fairness.DeltaPositions(rb, ra),
			Flags:          flagTypes(flags),
		})
		batch.Scores = append(batch.Scores, domain.CandidateScore{
			CandidateID: id,
			Total:       r.total,
			ByCriterion: r.before,
			DisplayName: r.cand.DisplayName,
		})
	}
	switch len(scorers) {
	case 1:
		for name := range scorers {
			batch.Scorer = name
		}
	default:
		batch.Scorer = MixedScorer
	}
	return batch
}

func (s ScoringService) candidateFlags(r candidateRun, rankBefore, rankAfter int) []domain.EthicsFlag {
	id := r.cand.ID
	var flags []domain.EthicsFlag
	if f, ok := fairness.RankDeltaFlag(id, rankBefore, rankAfter); ok {
		flags = append(flags, f)
	} else if f, ok := fairness.ScoreDeltaFlag(id, r.total, r.totalBlnd, s.Options.ScoreDeltaThreshold); ok {
		flags = append(flags, f)
	}

	removed := redact.RemovedProxies(r.raw, r.blinded)
	if f, ok := fairness.ProxyFlag(id, removed); ok {
		flags = append(flags, f)
	}

	proxies := redact.DetectProxies(r.raw)
	cited := map[string][]string{}
	keys := make([]string, 0, len(r.before))
	for _, c := range r.before {
		keys = append(keys, c.Key)
		cited[c.Key] = redact.CitesProxy(c.EvidenceSpan, proxies)
	}
	if f, ok := fairness.ProxyEvidenceFlag(id, keys, cited); ok {
		flags = append(flags, f)
	}

	if f, ok := evidence.Flag(id, evidence.Check(r.raw, r.before)); ok {
		flags = append(flags, f)
	}

	if s.Options.DebugFlags {
		flags = append(flags, debugFlag(r, removed))
	}
	return flags
}

func debugFlag(r candidateRun, removed []string) domain.EthicsFlag {
	spans := func(cs []domain.CriterionScore) map[string]any {
		m := make(map[string]any, len(cs))
		for _, c := range cs {
			m[c.Key] = c.EvidenceSpan
		}
		return m
	}
	return domain.EthicsFlag{
		CandidateID: r.cand.ID,
		Type:        domain.FlagDebug,
		Severity:    domain.SeverityInfo,
		Message:     "Matched evidence per bucket (raw vs blinded).",
		Details: map[string]any{
			"scorer":          r.scorer,
			"evidence_before": spans(r.before),
			"evidence_after":  spans(r.after),
			"total_before":    r.total,
			"total_after":     r.totalBlnd,
			"removed_proxies": append([]string{}, removed...),
		},
	}
}

// flagTypes lists the distinct flag types in emission order.
func flagTypes(flags []domain.EthicsFlag) []string {
	out := []string{}
	seen := map[domain.FlagType]struct{}{}
	for _, f := range flags {
		if _, ok := seen[f.Type]; ok {
			continue
		}
		seen[f.Type] = struct{}{}
		out = append(out, string(f.Type))
	}
	return out
}
