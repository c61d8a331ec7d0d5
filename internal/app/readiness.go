package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/scorer"
)

// RedisClient is the minimal interface for a Redis client needed for readiness.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// ScorerPinger is the minimal interface for probing the remote scorer.
type ScorerPinger interface {
	Ping(ctx context.Context) error
}

// BuildReadinessChecks returns the redis and scorer readiness checks. A check
// is nil when its dependency is not configured. An open breaker fails the
// scorer check without a network call.
func BuildReadinessChecks(rdb RedisClient, remote ScorerPinger, breaker *scorer.CircuitBreaker) (redisCheck, scorerCheck func(ctx context.Context) error) {
	if rdb != nil {
		redisCheck = func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("op=readiness.redis: %w", err)
			}
			return nil
		}
	}
	if remote != nil {
		scorerCheck = func(ctx context.Context) error {
			if breaker != nil && breaker.State() == scorer.CircuitOpen {
				return fmt.Errorf("op=readiness.scorer: circuit open")
			}
			return remote.Ping(ctx)
		}
	}
	return redisCheck, scorerCheck
}
