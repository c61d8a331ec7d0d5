package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-cv-fairness/internal/config"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/internal/usecase"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg         config.Config
	Jobs        usecase.JobService
	Candidates  usecase.CandidateService
	Scoring     usecase.ScoringService
	Reports     usecase.ReportService
	Exports     usecase.ExportService
	RedisCheck  func(ctx context.Context) error
	ScorerCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
// Either check may be nil when the dependency is not configured.
func NewServer(cfg config.Config, jobs usecase.JobService, cands usecase.CandidateService, scoring usecase.ScoringService, reports usecase.ReportService, exports usecase.ExportService, redisCheck, scorerCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:         cfg,
		Jobs:        jobs,
		Candidates:  cands,
		Scoring:     scoring,
		Reports:     reports,
		Exports:     exports,
		RedisCheck:  redisCheck,
		ScorerCheck: scorerCheck,
	}
}

type rubricItemRequest struct {
	Key         string  `json:"key" validate:"required,max=64"`
	Weight      float64 `json:"weight" validate:"gte=0"`
	Description string  `json:"description" validate:"max=2000"`
}

type createJobRequest struct {
	Title       string              `json:"title" validate:"required,max=300"`
	Description string              `json:"description" validate:"max=20000"`
	Rubric      []rubricItemRequest `json:"rubric" validate:"max=32,dive"`
	RoleContext string              `json:"role_context" validate:"max=300"`
}

type candidateRequest struct {
	CVText           string         `json:"cv_text" validate:"required"`
	DisplayName      *string        `json:"display_name" validate:"omitempty,max=200"`
	Artifacts        map[string]any `json:"artifacts"`
	CounterfactualOf *string        `json:"counterfactual_of" validate:"omitempty,max=100"`
}

type addCandidatesRequest struct {
	JobID      string             `json:"job_id" validate:"required,max=100"`
	Candidates []candidateRequest `json:"candidates" validate:"required,min=1,dive"`
}

type runRequest struct {
	JobID        string   `json:"job_id" validate:"required,max=100"`
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1,dive,required,max=100"`
}

// decodeBody decodes a JSON body into v and validates it. It writes the error
// response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !acceptsJSON(r) {
		writeNotAcceptable(w, r)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "payload too large",
				Details: map[string]any{"max_bytes": mbe.Limit},
			}})
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if res := ValidateStruct(v); !res.Valid {
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), res.Errors)
		return false
	}
	return true
}

// pathID reads and validates a URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if res := ValidateID(name, id); !res.Valid {
		writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, res.Errors[0].Message), res.Errors)
		return "", false
	}
	return id, true
}

// CreateJobHandler creates a job.
func (s *Server) CreateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if !decodeBody(w, r, &req) {
			return
		}
		in := usecase.JobInput{Title: req.Title, Description: req.Description, RoleContext: req.RoleContext}
		for _, it := range req.Rubric {
			in.Rubric = append(in.Rubric, domain.RubricItem{Key: it.Key, Weight: it.Weight, Description: it.Description})
		}
		id, err := s.Jobs.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"job_id": id})
	}
}

// GetJobHandler returns a job by id.
func (s *Server) GetJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		j, err := s.Jobs.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

// AddCandidatesHandler stores a batch of candidates for a job.
func (s *Server) AddCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCandidatesRequest
		if !decodeBody(w, r, &req) {
			return
		}
		in := make([]usecase.CandidateInput, 0, len(req.Candidates))
		for _, c := range req.Candidates {
			in = append(in, usecase.CandidateInput{
				CVText:           c.CVText,
				DisplayName:      c.DisplayName,
				Artifacts:        c.Artifacts,
				CounterfactualOf: c.CounterfactualOf,
			})
		}
		ids, err := s.Candidates.AddBatch(r.Context(), req.JobID, in)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"candidate_ids": ids})
	}
}

// GetCandidateHandler returns a candidate by id.
func (s *Server) GetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		c, err := s.Candidates.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// RunScoringHandler scores candidates on raw and blinded text and returns the audit.
func (s *Server) RunScoringHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := s.Scoring.Run(r.Context(), req.JobID, req.CandidateIDs)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListBatchesHandler lists batch summaries, newest first.
func (s *Server) ListBatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.Reports.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": list})
	}
}

// ReportHandler returns the audit report of a batch. The optional k query
// parameter sets the top-K overlap size.
func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		id, ok := pathID(w, r, "batch_id")
		if !ok {
			return
		}
		k, res := ValidateK(r.URL.Query().Get("k"))
		if !res.Valid {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, res.Errors[0].Message), res.Errors)
			return
		}
		rep, err := s.Reports.Report(r.Context(), id, k)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// AuditExportHandler serves /audit/{file} where file is <batch_id>.json or <batch_id>.csv.
func (s *Server) AuditExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		var (
			id, contentType string
			export          func(context.Context, string) ([]byte, error)
		)
		switch {
		case strings.HasSuffix(file, ".json"):
			id, contentType, export = strings.TrimSuffix(file, ".json"), "application/json; charset=utf-8", s.Exports.JSON
		case strings.HasSuffix(file, ".csv"):
			id, contentType, export = strings.TrimSuffix(file, ".csv"), "text/csv; charset=utf-8", s.Exports.CSV
		default:
			writeError(w, r, fmt.Errorf("%w: export format must be .json or .csv", domain.ErrInvalidArgument), map[string]string{"file": file})
			return
		}
		if res := ValidateID("batch_id", id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, res.Errors[0].Message), res.Errors)
			return
		}
		body, err := export(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// PingHandler answers liveness probes from API clients.
func (s *Server) PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler returns a readiness handler that probes Redis and the remote scorer.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"redis", s.RedisCheck},
			{"scorer", s.ScorerCheck},
		}
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: p.name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: p.name, OK: true})
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
