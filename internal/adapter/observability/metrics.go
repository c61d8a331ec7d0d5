package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	ScorerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_requests_total",
			Help: "Total number of criterion scorer calls by scorer and outcome",
		},
		[]string{"scorer", "outcome"},
	)
	ScorerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorer_request_duration_seconds",
			Help:    "Criterion scorer call duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"scorer"},
	)
	ScorerFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_fallbacks_total",
			Help: "Candidates scored by the heuristic after the alternate scorer failed",
		},
		[]string{"reason"},
	)

	BatchesScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_scored_total",
			Help: "Total number of scoring batches completed",
		},
		[]string{"scorer"},
	)
	CandidatesScoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "candidates_scored_total",
			Help: "Total number of candidates scored (raw and blinded pass counted once)",
		},
	)
	EthicsFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethics_flags_total",
			Help: "Total number of ethics flags emitted",
		},
		[]string{"type", "severity"},
	)

	// Audit outcome distributions
	SpearmanRhoHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_spearman_rho",
			Help:    "Distribution of raw vs blinded Spearman rank correlation ([-1,1])",
			Buckets: []float64{-1, -0.5, 0, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		},
	)
	BlindingDeltaHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_blinding_abs_delta",
			Help:    "Distribution of |total_after - total_before| per candidate ([0,5])",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ScorerRequestsTotal)
	prometheus.MustRegister(ScorerRequestDuration)
	prometheus.MustRegister(ScorerFallbacksTotal)
	prometheus.MustRegister(BatchesScoredTotal)
	prometheus.MustRegister(CandidatesScoredTotal)
	prometheus.MustRegister(EthicsFlagsTotal)
	prometheus.MustRegister(SpearmanRhoHistogram)
	prometheus.MustRegister(BlindingDeltaHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveScorerCall records one criterion scorer call.
func ObserveScorerCall(scorer, outcome string, d time.Duration) {
	ScorerRequestsTotal.WithLabelValues(scorer, outcome).Inc()
	ScorerRequestDuration.WithLabelValues(scorer).Observe(d.Seconds())
}

// RecordFallback counts a candidate that fell back to the heuristic scorer.
func RecordFallback(reason string) {
	ScorerFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordBatch records a completed batch. rho may be nil.
func RecordBatch(scorer string, candidates int, rho *float64) {
	BatchesScoredTotal.WithLabelValues(scorer).Inc()
	CandidatesScoredTotal.Add(float64(candidates))
	if rho != nil && *rho >= -1 && *rho <= 1 {
		SpearmanRhoHistogram.Observe(*rho)
	}
}

// RecordFlag counts an emitted ethics flag.
func RecordFlag(flagType, severity string) {
	EthicsFlagsTotal.WithLabelValues(flagType, severity).Inc()
}

// ObserveBlindingDelta records the absolute total delta of one candidate.
func ObserveBlindingDelta(absDelta float64) {
	if absDelta >= 0 && absDelta <= 5 {
		BlindingDeltaHistogram.Observe(absDelta)
	}
}
