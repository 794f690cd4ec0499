package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TranslatorSRI/cqs/internal/api/middleware"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// handleQuery implements POST /query: the synchronous one-hop fan-out (spec §6, C8).
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	var query trapi.Query

	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.logger.Warn("malformed /query body", slog.String("correlation_id", correlationID), slog.String("error", err.Error()))
		WriteErrorResponse(w, r, s.logger, BadRequest("request body is not a valid TRAPI query"))

		return
	}

	response := s.pipeline.Run(r.Context(), query)

	writeJSON(w, s.logger, http.StatusOK, response)
}

// writeJSON encodes body as the response, logging (but not retrying) an encode failure.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
