package api

import (
	"log/slog"
	"net/http"

	"github.com/TranslatorSRI/cqs/internal/jobs"
)

// handleDownload implements GET /download/{id}: returns the job's stored TRAPI Response once it
// has completed. Spec §6: 400 if the id is unknown or the job has no stored response yet.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
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

	if job.Status != jobs.StatusCompleted || len(job.Response) == 0 {
		WriteErrorResponse(w, r, s.logger, BadRequest("job has no stored response"))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(job.Response); err != nil {
		s.logger.Error("failed to write download response", slog.String("error", err.Error()))
	}
}
