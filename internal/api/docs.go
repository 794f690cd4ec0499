package api

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed openapi.json
var openAPIDocument []byte

const docsHTML = `<!DOCTYPE html>
<html>
<head>
  <title>CQS API Docs</title>
  <script src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
  <rapi-doc spec-url="/openapi.json" theme="light"></rapi-doc>
</body>
</html>
`

// handleOpenAPIDocument implements GET /openapi.json: serves the hand-built OpenAPI 3.0 document
// describing the HTTP surface (spec §6, C15). No reflection-based generation — see DESIGN.md.
func (s *Server) handleOpenAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(openAPIDocument); err != nil {
		s.logger.Error("failed to write openapi document", slog.String("error", err.Error()))
	}
}

// handleDocsUI implements GET /docs/: a minimal HTML page embedding a CDN-hosted API doc viewer
// pointed at /openapi.json.
func (s *Server) handleDocsUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(docsHTML)); err != nil {
		s.logger.Error("failed to write docs page", slog.String("error", err.Error()))
	}
}
