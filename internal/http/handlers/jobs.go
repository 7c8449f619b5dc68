package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shortgen/internal/domain"
)

// createJobRequest is the canonical job-creation schema. "caption" is a
// legacy alias for "outcome", honored on ingestion only.
type createJobRequest struct {
	Title           string `json:"title"`
	Outcome         string `json:"outcome"`
	Caption         string `json:"caption"`
	ReferenceLink   string `json:"reference_link"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (req *createJobRequest) brief() domain.Brief {
	outcome := req.Outcome
	if outcome == "" {
		outcome = req.Caption
	}
	return domain.Brief{
		Title:           req.Title,
		Outcome:         outcome,
		ReferenceLink:   req.ReferenceLink,
		DurationSeconds: req.DurationSeconds,
	}
}

// JobsCreate accepts a brief and returns the new job id. Pipeline failures
// never surface here; clients learn about them by polling.
func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	jobID, err := a.Engine.CreateJob(r.Context(), req.brief())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBrief) {
			a.error(w, http.StatusBadRequest, err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// JobsStatus returns the resolver's snapshot for a job.
func (a *App) JobsStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "job_id required")
		return
	}
	snap, err := a.Engine.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "failed to resolve status")
		return
	}
	a.json(w, http.StatusOK, snap)
}
