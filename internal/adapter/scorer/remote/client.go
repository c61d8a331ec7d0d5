// Package remote implements a criterion scorer backed by an HTTP scoring service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-cv-fairness/internal/config"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
	"github.com/fairyhunter13/ai-cv-fairness/pkg/textx"
)

// Name identifies this scorer in batches and metrics.
const Name = "remote"

// Response limits.
const (
	maxEvidenceChars  = 240
	maxRationaleChars = 400
	maxBodyBytes      = 1 << 20
)

// Client implements domain.CriterionScorer over HTTP.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

var _ domain.CriterionScorer = (*Client)(nil)

// New constructs a remote scorer client with an otelhttp-instrumented transport.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("RemoteScorer %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.RemoteScorerTimeout, Transport: transport},
	}
}

// Name returns the scorer name.
func (c *Client) Name() string { return Name }

type rubricItem struct {
	Key         string  `json:"key"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

type scoreRequest struct {
	JobTitle    string       `json:"job_title"`
	RoleContext string       `json:"role_context,omitempty"`
	Rubric      []rubricItem `json:"rubric"`
	Keys        []string     `json:"keys"`
	CVText      string       `json:"cv_text"`
}

type criterion struct {
	Key          string   `json:"key"`
	Score        *float64 `json:"score"`
	EvidenceSpan string   `json:"evidence_span"`
	Rationale    string   `json:"rationale"`
}

type scoreResponse struct {
	ByCriterion *[]criterion `json:"by_criterion"`
}

// statusError carries a non-2xx status from the scoring service.
type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("scorer status %d", e.code) }

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetScorerBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// Score posts the CV to the scoring service. Transport failures, timeouts,
// non-2xx statuses and exhausted retries are Unavailable; malformed bodies
// and missing keys are Invalid. It never returns an error.
func (c *Client) Score(ctx context.Context, req domain.ScoreRequest) domain.ScoreOutcome {
	lg := obsctx.LoggerFromContext(ctx)
	if c.cfg.RemoteScorerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RemoteScorerTimeout)
		defer cancel()
	}

	payload := scoreRequest{JobTitle: req.JobTitle, RoleContext: req.RoleContext, Keys: req.Keys, CVText: req.CVText}
	for _, r := range req.Rubric {
		payload.Rubric = append(payload.Rubric, rubricItem{Key: r.Key, Weight: r.Weight, Description: r.Description})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return invalid("encode request: " + err.Error())
	}

	var body []byte
	op := func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RemoteScorerURL, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Accept", "application/json")
		if c.cfg.RemoteScorerAPIKey != "" {
			r.Header.Set("Authorization", "Bearer "+c.cfg.RemoteScorerAPIKey)
		}
		if rid := obsctx.RequestIDFromContext(ctx); rid != "" {
			r.Header.Set("X-Request-Id", rid)
		}
		resp, err := c.hc.Do(r)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lg.Warn("remote scorer retryable status", "status", resp.StatusCode)
			return statusError{code: resp.StatusCode}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(statusError{code: resp.StatusCode})
		}
		body = data
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		lg.Warn("remote scorer unavailable", "error", err)
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("%v: %v", domain.ErrUpstreamTimeout, err)
		}
		return domain.ScoreOutcome{Status: domain.OutcomeUnavailable, Reason: reason}
	}

	criteria, err := parseCriteria(body, req.Keys)
	if err != nil {
		lg.Warn("remote scorer returned invalid output", "error", err)
		return invalid(err.Error())
	}
	return domain.ScoreOutcome{Status: domain.OutcomeOK, Criteria: criteria}
}

func invalid(reason string) domain.ScoreOutcome {
	return domain.ScoreOutcome{Status: domain.OutcomeInvalid, Reason: reason}
}

// parseCriteria decodes the response and returns one criterion per key, in key order.
func parseCriteria(body []byte, keys []string) ([]domain.CriterionScore, error) {
	var resp scoreResponse
	if err := json.Unmarshal([]byte(cleanJSON(string(body))), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.ByCriterion == nil {
		return nil, errors.New("by_criterion missing")
	}
	byKey := make(map[string]criterion, len(*resp.ByCriterion))
	for _, c := range *resp.ByCriterion {
		if _, dup := byKey[c.Key]; !dup {
			byKey[c.Key] = c
		}
	}
	out := make([]domain.CriterionScore, 0, len(keys))
	for _, k := range keys {
		c, ok := byKey[k]
		if !ok || c.Score == nil {
			return nil, fmt.Errorf("criterion %q missing", k)
		}
		out = append(out, domain.CriterionScore{
			Key:          k,
			Score:        clampScore(*c.Score),
			EvidenceSpan: textx.Truncate(c.EvidenceSpan, maxEvidenceChars),
			Rationale:    textx.Truncate(c.Rationale, maxRationaleChars),
		})
	}
	return out, nil
}

// clampScore rounds to the nearest half point within [0, 5].
func clampScore(v float64) float64 {
	v = math.Round(v*2) / 2
	return math.Max(0, math.Min(5, v))
}

// Ping checks that the scoring service answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.RemoteScorerURL, nil)
	if err != nil {
		return fmt.Errorf("op=remote.ping: %w", err)
	}
	resp, err := c.hc.Do(r)
	if err != nil {
		return fmt.Errorf("op=remote.ping: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}
