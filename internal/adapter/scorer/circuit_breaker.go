// Package scorer guards alternate criterion scorers with a circuit breaker
// and an optional shared rate limiter.
package scorer

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen refuses calls until the open timeout elapses.
	CircuitOpen
	// CircuitHalfOpen lets a single probe through.
	CircuitHalfOpen
)

// Breaker defaults.
const (
	DefaultMaxFailures = 3
	DefaultOpenTimeout = 30 * time.Second
)

// CircuitBreaker opens after a run of consecutive failures and probes
// recovery once the open timeout has passed.
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	failureThreshold int
	openTimeout      time.Duration
	state            CircuitState
	failureCount     int
	openedAt         time.Time
	probing          bool
	totalRequests    int
	totalFailures    int
	now              func() time.Time
}

// NewCircuitBreaker creates a breaker for the named scorer. Non-positive
// arguments select the defaults.
func NewCircuitBreaker(name string, maxFailures int, openTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: maxFailures,
		openTimeout:      openTimeout,
		state:            CircuitClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. An open breaker whose timeout
// has passed moves to half-open and admits one probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.openTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.probing = true
		slog.Info("circuit breaker half-open", slog.String("scorer", cb.name))
		return true
	case CircuitHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets the failure run.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	cb.failureCount = 0
	cb.probing = false
	if cb.state != CircuitClosed {
		cb.state = CircuitClosed
		slog.Info("circuit breaker closed after successful recovery",
			slog.String("scorer", cb.name),
			slog.Int("total_requests", cb.totalRequests))
	}
}

// RecordFailure extends the failure run; a failed probe reopens at once.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.totalFailures++
	cb.totalRequests++
	cb.probing = false

	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		if cb.state != CircuitOpen {
			slog.Warn("circuit breaker opened due to consecutive failures",
				slog.String("scorer", cb.name),
				slog.Int("failure_count", cb.failureCount),
				slog.Int("threshold", cb.failureThreshold))
		}
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns breaker counters for diagnostics.
func (cb *CircuitBreaker) Stats() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]any{
		"scorer":         cb.name,
		"state":          cb.state.String(),
		"failure_count":  cb.failureCount,
		"total_requests": cb.totalRequests,
		"total_failures": cb.totalFailures,
	}
}

// String returns a string representation of the circuit state
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
