package scorer

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
)

// LimiterKey is the bucket name used for alternate scorer calls.
const LimiterKey = "scorer:remote"

// Guarded wraps a criterion scorer with a circuit breaker and an optional
// limiter. Refused calls come back as OutcomeUnavailable.
type Guarded struct {
	inner   domain.CriterionScorer
	breaker *CircuitBreaker
	limiter Limiter
}

var _ domain.CriterionScorer = (*Guarded)(nil)

// NewGuarded wraps inner. limiter may be nil.
func NewGuarded(inner domain.CriterionScorer, breaker *CircuitBreaker, limiter Limiter) *Guarded {
	if breaker == nil {
		breaker = NewCircuitBreaker(inner.Name(), 0, 0)
	}
	return &Guarded{inner: inner, breaker: breaker, limiter: limiter}
}

// Name returns the wrapped scorer's name.
func (g *Guarded) Name() string { return g.inner.Name() }

// Breaker exposes the circuit breaker for readiness reporting.
func (g *Guarded) Breaker() *CircuitBreaker { return g.breaker }

// Score calls the wrapped scorer unless the limiter or the breaker refuses.
// Only Unavailable outcomes count as breaker failures.
func (g *Guarded) Score(ctx context.Context, req domain.ScoreRequest) domain.ScoreOutcome {
	if g.limiter != nil {
		ok, retryAfter, err := g.limiter.Allow(ctx, LimiterKey, 1)
		if err != nil {
			obsctx.LoggerFromContext(ctx).Warn("scorer limiter error; allowing call", "error", err)
		}
		if !ok {
			return domain.ScoreOutcome{
				Status: domain.OutcomeUnavailable,
				Reason: fmt.Sprintf("%v: retry after %s", domain.ErrRateLimited, retryAfter),
			}
		}
	}
	if !g.breaker.Allow() {
		return domain.ScoreOutcome{Status: domain.OutcomeUnavailable, Reason: "circuit open"}
	}
	out := g.inner.Score(ctx, req)
	switch out.Status {
	case domain.OutcomeUnavailable:
		g.breaker.RecordFailure()
	default:
		g.breaker.RecordSuccess()
	}
	return out
}
