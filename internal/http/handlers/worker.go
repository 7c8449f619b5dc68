package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shortgen/internal/queue"
)

// workerPayload is the push-task body. It mirrors queue.Payload plus the
// legacy "caption" alias still present on tasks queued before the rename.
type workerPayload struct {
	JobID           string `json:"job_id"`
	Title           string `json:"title"`
	Outcome         string `json:"outcome"`
	Caption         string `json:"caption"`
	ReferenceLink   string `json:"reference_link"`
	DurationSeconds int    `json:"duration_seconds"`
}

// WorkerProcess is the managed-queue callback: it re-enters the engine's
// pipeline runner with the same payload shape used by local dispatch.
// Pipeline errors are captured on the job record, not returned as an HTTP
// failure, so the managed queue does not redeliver the task.
func (a *App) WorkerProcess(w http.ResponseWriter, r *http.Request) {
	var p workerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if p.Outcome == "" && p.Caption != "" {
		p.Outcome = p.Caption
	}

	var missing []string
	if strings.TrimSpace(p.JobID) == "" {
		missing = append(missing, "job_id")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Outcome) == "" {
		missing = append(missing, "outcome")
	}
	if len(missing) > 0 {
		a.error(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	if err := a.Engine.ProcessJob(r.Context(), queue.Payload{
		JobID:           p.JobID,
		Title:           p.Title,
		Outcome:         p.Outcome,
		ReferenceLink:   p.ReferenceLink,
		DurationSeconds: p.DurationSeconds,
	}); err != nil {
		a.Logger.Error().Err(err).Str("job_id", p.JobID).Msg("worker: pipeline failed")
	}

	a.json(w, http.StatusOK, map[string]string{"status": "processing", "job_id": p.JobID})
}
