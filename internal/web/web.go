package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfmerger/internal/metrics"
	"github.com/local/pdfmerger/internal/pipeline"
)

// Runner is the pipeline surface the HTTP layer depends on.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (string, error)
}

// JobReader exposes recorded job statuses, when a status store is
// configured.
type JobReader interface {
	Get(ctx context.Context, jobID string) (pipeline.JobStatus, bool, error)
}

// Server exposes the merge endpoints for both environments plus
// health, metrics and job-status probes.
type Server struct {
	staging    Runner
	prod       Runner
	jobs       JobReader
	jobTimeout time.Duration
}

func New(staging, prod Runner, jobs JobReader, jobTimeout time.Duration) *Server {
	if jobTimeout <= 0 {
		jobTimeout = 120 * time.Second
	}
	return &Server{staging: staging, prod: prod, jobs: jobs, jobTimeout: jobTimeout}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/staging/merge", s.mergeHandler(s.staging, "staging"))
	mux.HandleFunc("/api/v1/prod/merge", s.mergeHandler(s.prod, "prod"))
	mux.HandleFunc("/api/v1/jobs/", s.handleJobStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
}

type mergeRequest struct {
	LeadID string   `json:"lead_id"`
	URLs   []string `json:"urls"`
}

type mergeResponse struct {
	Status string `json:"status"`
	S3Key  string `json:"s3_key,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) mergeHandler(runner Runner, env string) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			wr.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req mergeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(wr, http.StatusBadRequest, mergeResponse{Status: "error", Detail: "invalid request body"})
			return
		}
		if strings.TrimSpace(req.LeadID) == "" {
			writeJSON(wr, http.StatusBadRequest, mergeResponse{Status: "error", Detail: "lead_id is required"})
			return
		}

		log.Info().Str("environment", env).Str("lead_id", req.LeadID).Int("urls", len(req.URLs)).Msg("received merge request")

		ctx, cancel := context.WithTimeout(r.Context(), s.jobTimeout)
		defer cancel()

		key, err := runner.Run(ctx, pipeline.Job{LeadID: req.LeadID, URLs: req.URLs})
		if err != nil {
			writeJSON(wr, statusFor(err), mergeResponse{Status: "error", Detail: err.Error()})
			return
		}
		writeJSON(wr, http.StatusOK, mergeResponse{Status: "success", S3Key: key})
	}
}

// statusFor maps the pipeline's fatal categories to HTTP codes: input
// problems are the caller's, upload exhaustion is the backend's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoUsableInputs), errors.Is(err, pipeline.ErrNoValidOutput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleJobStatus(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" || s.jobs == nil {
		wr.WriteHeader(http.StatusNotFound)
		return
	}
	st, ok, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		wr.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		wr.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(wr, http.StatusOK, st)
}

func (s *Server) handleHealth(wr http.ResponseWriter, r *http.Request) {
	writeJSON(wr, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(wr http.ResponseWriter, code int, v any) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(code)
	_ = json.NewEncoder(wr).Encode(v)
}
