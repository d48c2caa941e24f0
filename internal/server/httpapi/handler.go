// Package httpapi exposes the submission service over HTTP/JSON: job
// submission, job read-back, health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/models"
	"github.com/gridfts/submitd/internal/server/repositories/jobs"
	"github.com/gridfts/submitd/internal/server/submission"
)

// maxPayloadBytes bounds a submission document.
const maxPayloadBytes = 10 << 20

// Handler serves the submission API.
type Handler struct {
	builder *submission.Builder
	jobs    jobs.Repository
	log     logging.Logger
}

// NewHandler wires the API handler.
func NewHandler(builder *submission.Builder, repo jobs.Repository, log logging.Logger) *Handler {
	return &Handler{builder: builder, jobs: repo, log: log.With("module", "httpapi")}
}

// Routes mounts the API endpoints on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/jobs", h.Submit)
	r.Get("/api/v1/jobs/{id}", h.GetJob)
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Submit builds and persists one submission. The builder either produces a
// complete record set or fails with no side effects; persistence is one
// atomic batch, so a failure leaves nothing behind.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := IdentityFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	payload, err := submission.ParsePayload(body)
	if err != nil {
		h.rejected(ctx, w, err)
		return
	}

	result, err := h.builder.Build(ctx, &submission.Request{
		UserDN:    id.DN,
		VO:        id.VO,
		TokenAuth: id.TokenAuth,
		Bearer:    id.Bearer,
		Payload:   payload,
	})
	if err != nil {
		h.rejected(ctx, w, err)
		return
	}

	if err := h.jobs.InsertBatch(ctx, result.Job, result.Files, result.Tokens); err != nil {
		h.log.Error(ctx, "failed to persist submission", "job_id", result.Job.ID, "error", err.Error())
		submissionsTotal.WithLabelValues("failed").Inc()
		writeError(w, http.StatusInternalServerError, "submission could not be stored")
		return
	}

	h.log.Info(ctx, "submission accepted",
		"job_id", result.Job.ID,
		"job_type", string(result.Job.Type),
		"vo", result.Job.VO,
		"files", len(result.Files))
	submissionsTotal.WithLabelValues("accepted").Inc()
	submissionFiles.Observe(float64(len(result.Files)))

	writeJSON(w, http.StatusOK, submitResponse{JobID: result.Job.ID})
}

// rejected maps a builder error onto the wire: malformed input and policy
// violations are caller errors, bans are forbidden, and internal
// inconsistencies are hidden behind a generic message.
func (h *Handler) rejected(ctx context.Context, w http.ResponseWriter, err error) {
	submissionsTotal.WithLabelValues("rejected").Inc()
	switch {
	case errors.Is(err, submission.ErrMalformedInput),
		errors.Is(err, submission.ErrPolicyViolation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, submission.ErrAuthorizationDenied):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.log.Error(ctx, "submission failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type jobResponse struct {
	Job   *models.Job    `json:"job"`
	Files []*models.File `json:"files"`
}

// GetJob returns one job with its files.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	job, err := h.jobs.GetJob(ctx, id)
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "no such job")
		return
	}
	if err != nil {
		h.log.Error(ctx, "failed to load job", "job_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	files, err := h.jobs.GetFiles(ctx, id)
	if err != nil {
		h.log.Error(ctx, "failed to load files", "job_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{Job: job, Files: files})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Status: status, Message: msg})
}
