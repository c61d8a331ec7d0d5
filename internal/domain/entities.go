package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal error")
)

// Canonical rubric bucket keys.
const (
	KeySysDesign     = "sys_design"
	KeyProdOwnership = "prod_ownership"
	KeyLangStack     = "lang_stack"
	KeyCodeQuality   = "code_quality"
)

// BucketKeys lists the canonical bucket keys in scoring order.
var BucketKeys = []string{KeySysDesign, KeyProdOwnership, KeyLangStack, KeyCodeQuality}

// IsBucketKey reports whether key is one of the canonical bucket keys.
func IsBucketKey(key string) bool {
	for _, k := range BucketKeys {
		if k == key {
			return true
		}
	}
	return false
}

// RubricItem is one weighted rubric dimension of a job.
type RubricItem struct {
	Key         string  `json:"key"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Job is immutable once created.
// Invariants: rubric keys unique.
type Job struct {
	ID          string       `json:"job_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Rubric      []RubricItem `json:"rubric"`
	RoleContext string       `json:"role_context"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Candidate is immutable once created. JobID is a reference, not an enforced foreign key.
type Candidate struct {
	ID               string         `json:"candidate_id"`
	JobID            string         `json:"job_id"`
	CVText           string         `json:"cv_text"`
	DisplayName      *string        `json:"display_name,omitempty"`
	Artifacts        map[string]any `json:"artifacts,omitempty"`
	CounterfactualOf *string        `json:"counterfactual_of,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// CriterionScore is the score of one rubric bucket. Score is in [0,5] with two decimals.
type CriterionScore struct {
	Key          string  `json:"key"`
	Score        float64 `json:"score"`
	EvidenceSpan string  `json:"evidence_span"`
	Rationale    string  `json:"rationale"`
}

// CandidateScore is the aggregate score of a candidate.
type CandidateScore struct {
	CandidateID string           `json:"candidate_id"`
	Total       float64          `json:"total"`
	ByCriterion []CriterionScore `json:"by_criterion"`
	DisplayName *string          `json:"display_name,omitempty"`
}

// FlagType enumerates ethics flag kinds.
type FlagType string

const (
	FlagBlindingDelta      FlagType = "BLINDING_DELTA"
	FlagProxySignalRemoved FlagType = "PROXY_SIGNAL_REMOVED"
	FlagProxyEvidence      FlagType = "PROXY_EVIDENCE"
	FlagNoEvidence         FlagType = "NO_EVIDENCE"
	FlagDebug              FlagType = "DEBUG"
)

// Severity of an ethics flag.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// EthicsFlag surfaces a scoring-quality or fairness concern for one candidate.
type EthicsFlag struct {
	CandidateID string         `json:"candidate_id"`
	Type        FlagType       `json:"type"`
	Severity    Severity       `json:"severity"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
}

// CandidateRecord is the per-candidate audit row of a batch.
type CandidateRecord struct {
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

// Batch is the immutable outcome of one scoring run.
type Batch struct {
	ID          string            `json:"batch_id"`
	JobID       string            `json:"job_id"`
	CreatedAt   time.Time         `json:"created_at"`
	RoleContext string            `json:"role_context"`
	Scorer      string            `json:"scorer"`
	Candidates  []CandidateRecord `json:"candidates"`
	RanksBefore map[string]int    `json:"ranks_before"`
	RanksAfter  map[string]int    `json:"ranks_after"`
	SpearmanRho *float64          `json:"spearman_rho"`
	Flags       []EthicsFlag      `json:"flags"`
	Scores      []CandidateScore  `json:"scores"`
}

// Repositories (ports)

type JobRepository interface {
	Put(ctx Context, j Job) error
	Get(ctx Context, id string) (Job, error)
	List(ctx Context) ([]Job, error)
}

type CandidateRepository interface {
	Put(ctx Context, c Candidate) error
	Get(ctx Context, id string) (Candidate, error)
	List(ctx Context) ([]Candidate, error)
}

// BatchRepository stores batches. Put must fail with ErrConflict when the id
// already exists and must make the batch visible atomically.
type BatchRepository interface {
	Put(ctx Context, b Batch) error
	Get(ctx Context, id string) (Batch, error)
	List(ctx Context) ([]Batch, error)
}

// Alternate scorer (port)

// OutcomeStatus is the result variant of a criterion scorer call.
type OutcomeStatus int

const (
	OutcomeOK OutcomeStatus = iota
	OutcomeUnavailable
	OutcomeInvalid
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeOK:
		return "ok"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ScoreRequest carries everything a criterion scorer needs for one text.
type ScoreRequest struct {
	JobTitle    string
	RoleContext string
	Rubric      []RubricItem
	// Keys are the bucket keys to score, in output order.
	Keys   []string
	CVText string
}

// ScoreOutcome is Ok(criteria) | Unavailable(reason) | Invalid(reason).
type ScoreOutcome struct {
	Status   OutcomeStatus
	Criteria []CriterionScore
	Reason   string
}

// CriterionScorer scores a CV text per rubric bucket.
type CriterionScorer interface {
	Name() string
	Score(ctx Context, req ScoreRequest) ScoreOutcome
}

// Context is an alias so the domain can name the std context in signatures.
type Context = context.Context
