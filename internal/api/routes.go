// Package api provides the HTTP API server implementation for the Curated Query Service.
package api

import "net/http"

type (
	// Route represents an HTTP route configuration with a path and handler.
	Route struct {
		Path    string // The URL path for this route (e.g., "GET /version")
		Handler http.HandlerFunc
	}
)

// setupRoutes registers the five HTTP routes from spec §6 plus the OpenAPI document/UI.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	for _, route := range []Route{
		{"POST /query", s.handleQuery},
		{"POST /asyncquery", s.handleAsyncQuery},
		{"GET /asyncquery_status/{id}", s.handleAsyncQueryStatus},
		{"GET /download/{id}", s.handleDownload},
		{"GET /version", s.handleVersion},
		{"GET /openapi.json", s.handleOpenAPIDocument},
		{"GET /docs/", s.handleDocsUI},
	} {
		mux.HandleFunc(route.Path, route.Handler)
	}
}
