package api

import "net/http"

// VersionInfo is the response body for GET /version (spec §6, supplemented per original_source/
// openapi.rs with biolink_version alongside the spec's literal three fields).
type VersionInfo struct {
	AppVersion     string `json:"app_version"`     //nolint:tagliatelle
	TRAPIVersion   string `json:"trapi_version"`   //nolint:tagliatelle
	BiolinkVersion string `json:"biolink_version"`  //nolint:tagliatelle
	Maturity       string `json:"maturity"`
}

// handleVersion implements GET /version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, VersionInfo{
		AppVersion:     s.appVersion,
		TRAPIVersion:   s.config.TRAPIVersion,
		BiolinkVersion: s.config.BiolinkVersion,
		Maturity:       s.config.Maturity,
	})
}
