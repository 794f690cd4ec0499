package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TranslatorSRI/cqs/internal/api/middleware"
	"github.com/TranslatorSRI/cqs/internal/jobs"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// AsyncQueryAccepted is the response body for a successfully enqueued POST /asyncquery (spec §6).
type AsyncQueryAccepted struct {
	JobID  string `json:"job_id"` //nolint:tagliatelle
	Status string `json:"status"`
}

// handleAsyncQuery implements POST /asyncquery: enqueues the request as a Queued job (C9) for the
// Worker (C10) to pick up on its next tick. Whether the query shape is one the pipeline actually
// handles is decided later, inside the Worker tick — this handler only validates that the body is
// structurally a TRAPI AsyncQuery with a callback URL.
func (s *Server) handleAsyncQuery(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	var query trapi.AsyncQuery

	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.logger.Warn("malformed /asyncquery body", slog.String("correlation_id", correlationID), slog.String("error", err.Error()))
		WriteErrorResponse(w, r, s.logger, BadRequest("request body is not a valid TRAPI async query"))

		return
	}

	if strings.TrimSpace(query.Callback) == "" {
		WriteErrorResponse(w, r, s.logger, BadRequest("callback URL is required"))

		return
	}

	body, err := json.Marshal(query)
	if err != nil {
		s.logger.Error("failed to marshal accepted async query", slog.String("error", err.Error()))
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to enqueue query"))

		return
	}

	id, err := s.jobStore.Insert(r.Context(), body, query.Callback)
	if err != nil {
		s.logger.Error("failed to enqueue async query", slog.String("error", err.Error()))
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to enqueue query"))

		return
	}

	writeJSON(w, s.logger, http.StatusOK, AsyncQueryAccepted{
		JobID:  jobIDString(id),
		Status: statusLabel(jobs.StatusQueued),
	})
}
