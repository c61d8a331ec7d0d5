package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-fairness/internal/config"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
)

var testKeys = []string{"sys_design", "lang_stack"}

func newTestClient(url string) *Client {
	return New(config.Config{AppEnv: "test", RemoteScorerURL: url, RemoteScorerAPIKey: "secret", RemoteScorerTimeout: 5 * time.Second})
}

func testRequest() domain.ScoreRequest {
	return domain.ScoreRequest{
		JobTitle: "Backend Engineer",
		Rubric:   []domain.RubricItem{{Key: "sys_design", Weight: 0.5}, {Key: "lang_stack", Weight: 0.5}},
		Keys:     testKeys,
		CVText:   "Go and Kafka",
	}
}

func TestClient_Score_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-Id"))
		var body scoreRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Go and Kafka", body.CVText)
		assert.Equal(t, testKeys, body.Keys)
		_, _ = w.Write([]byte(`{"by_criterion":[
			{"key":"lang_stack","score":3.3,"evidence_span":"Go","rationale":"go"},
			{"key":"sys_design","score":7,"evidence_span":"` + strings.Repeat("k", 300) + `","rationale":"r"},
			{"key":"extra","score":1}
		]}`))
	}))
	defer srv.Close()

	ctx := obsctx.ContextWithRequestID(context.Background(), "req-1")
	c := newTestClient(srv.URL)
	assert.Equal(t, "remote", c.Name())
	out := c.Score(ctx, testRequest())
	require.Equal(t, domain.OutcomeOK, out.Status, out.Reason)
	require.Len(t, out.Criteria, 2)
	assert.Equal(t, "sys_design", out.Criteria[0].Key)
	assert.Equal(t, 5.0, out.Criteria[0].Score)
	assert.Len(t, out.Criteria[0].EvidenceSpan, maxEvidenceChars)
	assert.Equal(t, 3.5, out.Criteria[1].Score)
}

func TestClient_Score_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("```json\n{\"by_criterion\":[{\"key\":\"sys_design\",\"score\":2},{\"key\":\"lang_stack\",\"score\":1}]}\n```"))
	}))
	defer srv.Close()

	out := newTestClient(srv.URL).Score(context.Background(), testRequest())
	require.Equal(t, domain.OutcomeOK, out.Status, out.Reason)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Score_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.OutcomeStatus
		calls  int32
	}{
		{name: "client error is permanent", status: http.StatusBadRequest, body: `{}`, want: domain.OutcomeUnavailable, calls: 1},
		{name: "not json", status: http.StatusOK, body: `I cannot score this`, want: domain.OutcomeInvalid, calls: 1},
		{name: "missing by_criterion", status: http.StatusOK, body: `{"scores":[]}`, want: domain.OutcomeInvalid, calls: 1},
		{name: "missing key", status: http.StatusOK, body: `{"by_criterion":[{"key":"sys_design","score":2}]}`, want: domain.OutcomeInvalid, calls: 1},
		{name: "missing score", status: http.StatusOK, body: `{"by_criterion":[{"key":"sys_design","score":2},{"key":"lang_stack"}]}`, want: domain.OutcomeInvalid, calls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := newTestClient(srv.URL).Score(context.Background(), testRequest())
			assert.Equal(t, tt.want, out.Status)
			assert.NotEmpty(t, out.Reason)
			assert.Equal(t, tt.calls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_Score_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := newTestClient(url).Score(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeUnavailable, out.Status)
}

func TestClampScore(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0.2: 0, 0.3: 0.5, 2.74: 2.5, 2.75: 3, 4.9: 5, 12: 5}
	for in, want := range cases {
		assert.Equal(t, want, clampScore(in), "in=%v", in)
	}
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":"}"}`, cleanJSON(`Here you go: {"a":"}"} hope it helps`))
	assert.Equal(t, `{"a":[1,2]}`, cleanJSON(`{"a":[1,2,]}`))
	assert.Equal(t, "no json", cleanJSON("no json"))
}
