package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clk *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker("remote", 3, 30*time.Second)
	cb.now = clk.now
	return cb
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("remote", 0, 0)
	assert.Equal(t, DefaultMaxFailures, cb.failureThreshold)
	assert.Equal(t, DefaultOpenTimeout, cb.openTimeout)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	cb := newTestBreaker(clk)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	clk.t = clk.t.Add(29 * time.Second)
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsRun(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Unix(1000, 0)})
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name  string
		probe func(*CircuitBreaker)
		want  CircuitState
	}{
		{name: "probe succeeds", probe: (*CircuitBreaker).RecordSuccess, want: CircuitClosed},
		{name: "probe fails", probe: (*CircuitBreaker).RecordFailure, want: CircuitOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := &fakeClock{t: time.Unix(1000, 0)}
			cb := newTestBreaker(clk)
			for i := 0; i < 3; i++ {
				cb.RecordFailure()
			}
			clk.t = clk.t.Add(31 * time.Second)

			assert.True(t, cb.Allow())
			assert.Equal(t, CircuitHalfOpen, cb.State())
			assert.False(t, cb.Allow(), "only one probe while half-open")

			tt.probe(cb)
			assert.Equal(t, tt.want, cb.State())
		})
	}
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker("remote", 3, time.Second)
	cb.RecordFailure()
	cb.RecordSuccess()
	stats := cb.Stats()
	assert.Equal(t, "remote", stats["scorer"])
	assert.Equal(t, "closed", stats["state"])
	assert.Equal(t, 2, stats["total_requests"])
	assert.Equal(t, 1, stats["total_failures"])
}
