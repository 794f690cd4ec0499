package api

import (
	"net/http"

	"github.com/TranslatorSRI/cqs/internal/jobs"
)

// AsyncQueryStatus is the response body for GET /asyncquery_status/{id} (spec §6).
type AsyncQueryStatus struct {
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Logs        []string `json:"logs"`
	ResponseURL string   `json:"response_url,omitempty"` //nolint:tagliatelle
}

// handleAsyncQueryStatus implements GET /asyncquery_status/{id}.
func (s *Server) handleAsyncQueryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseJobID(r.PathValue("id"))
	if !ok {
		WriteErrorResponse(w, r, s.logger, BadRequest("unknown job id"))

		return
	}

	job, err := s.jobStore.FindByID(r.Context(), id)
	if err != nil || job == nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("unknown job id"))

		return
	}

	status := AsyncQueryStatus{
		Status:      statusLabel(job.Status),
		Description: statusDescription(job.Status),
		Logs:        []string{},
	}

	if job.Status == jobs.StatusCompleted {
		status.ResponseURL = s.config.ResponseURL + "/download/" + jobIDString(job.ID)
	}

	writeJSON(w, s.logger, http.StatusOK, status)
}

// statusLabel renders a job's persisted lowercase status as the TitleCase form spec §6's example
// payloads use ("Queued", "Completed", ...).
func statusLabel(status jobs.Status) string {
	switch status {
	case jobs.StatusQueued:
		return "Queued"
	case jobs.StatusRunning:
		return "Running"
	case jobs.StatusCompleted:
		return "Completed"
	case jobs.StatusFailed:
		return "Failed"
	default:
		return string(status)
	}
}

func statusDescription(status jobs.Status) string {
	switch status {
	case jobs.StatusQueued:
		return "job is queued and waiting for the next worker tick"
	case jobs.StatusRunning:
		return "job is running"
	case jobs.StatusCompleted:
		return "job completed; response available at response_url"
	case jobs.StatusFailed:
		return "job failed; no template produced a result"
	default:
		return ""
	}
}
