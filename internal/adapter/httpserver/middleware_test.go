package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obsctx "github.com/fairyhunter13/ai-cv-fairness/internal/observability"
)

func noContent(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func Test_SecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	h := rec.Result().Header
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.NotEmpty(t, h.Get("Content-Security-Policy"))
}

func Test_RequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		var seen string
		RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = obsctx.RequestIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		id := rec.Result().Header.Get("X-Request-Id")
		assert.Len(t, id, 26)
		assert.Equal(t, id, seen)
	})
	t.Run("keeps incoming id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Header.Set("X-Request-Id", "abc")
		RequestID()(http.HandlerFunc(noContent)).ServeHTTP(rec, r)
		assert.Equal(t, "abc", rec.Result().Header.Get("X-Request-Id"))
	})
}

func Test_Recoverer_HandlesPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	Recoverer()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) { panic("boom") })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Result().StatusCode)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}

func Test_accessLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, accessLevel(http.StatusOK))
	assert.Equal(t, slog.LevelWarn, accessLevel(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, accessLevel(http.StatusServiceUnavailable))
}

func Test_TimeoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(20 * time.Millisecond)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Result().StatusCode)

	rec = httptest.NewRecorder()
	TimeoutMiddleware(0)(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Result().StatusCode)
}

func Test_TraceMiddleware_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	TraceMiddleware(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Result().StatusCode)
}

func Test_AccessLog_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Result().StatusCode)
}

func Test_MaxBody(t *testing.T) {
	rec := httptest.NewRecorder()
	var readErr error
	MaxBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("too long")))
	require.Error(t, readErr)
	var mbe *http.MaxBytesError
	assert.ErrorAs(t, readErr, &mbe)
}
