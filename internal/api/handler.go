// Package api exposes the read-mostly dashboard surface over the job store:
// job listing and detail, status transitions (pause/resume/cancel) and the
// pre-flight report. It serves the same JSON documents the store persists.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
	"github.com/siteforge-ai/siteforge-cli/internal/config"
	"github.com/siteforge-ai/siteforge-cli/internal/preflight"
	"github.com/siteforge-ai/siteforge-cli/internal/store"
)

// Handler serves the dashboard endpoints.
type Handler struct {
	store   *store.Store
	cfg     *config.Config
	checker preflight.RepoChecker
}

// NewHandler creates a handler. cfg and checker may be nil; the pre-flight
// endpoint then reports the missing configuration.
func NewHandler(s *store.Store, cfg *config.Config, checker preflight.RepoChecker) *Handler {
	return &Handler{store: s, cfg: cfg, checker: checker}
}

// jobSummary is the list-view projection of a job document.
type jobSummary struct {
	ID        string            `json:"id"`
	SiteName  string            `json:"siteName,omitempty"`
	Status    backlog.JobStatus `json:"status"`
	Progress  backlog.Progress  `json:"progress"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ListJobs returns all jobs, most recently updated first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, jobSummary{
			ID:        job.ID,
			SiteName:  job.SiteName,
			Status:    job.Status,
			Progress:  job.Progress,
			UpdatedAt: job.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetJob returns the full job document.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// PauseJob marks an active job paused; the runner stops at its next loop
// iteration.
func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, backlog.JobPaused, func(s backlog.JobStatus) bool {
		return s == backlog.JobRunning || s == backlog.JobPending
	})
}

// ResumeJob moves a paused job back to pending so a runner can pick it up.
func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, backlog.JobPending, func(s backlog.JobStatus) bool {
		return s == backlog.JobPaused
	})
}

// CancelJob cancels a job that is not already terminal.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, backlog.JobCancelled, func(s backlog.JobStatus) bool {
		return s.Active()
	})
}

// Preflight runs the readiness checks against the configured job config.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	report := preflight.Run(r.Context(), h.cfg, h.checker)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) loadJob(w http.ResponseWriter, r *http.Request) (*backlog.Job, bool) {
	id := chi.URLParam(r, "id")
	job, err := h.store.Load(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "job not found")
		} else {
			writeErr(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return job, true
}

// transition applies a whole-document read-modify-write status change,
// matching the store's last-writer-wins contract.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to backlog.JobStatus, allowed func(backlog.JobStatus) bool) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	if !allowed(job.Status) {
		writeErr(w, http.StatusConflict, "job is "+string(job.Status))
		return
	}
	job.Status = to
	job.Touch()
	if err := h.store.Save(job); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}
