// Package template holds the fixed whitelist of canned query templates and renders concrete
// queries from them.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// EdgeSource is the provenance record a template attaches to its synthesized aggregate edge.
type EdgeSource struct {
	ResourceID   string
	ResourceRole string
}

// CQSConfig is the per-template configuration block from spec §3: an optional results limit, the
// attribute ids to copy onto the synthesized edge, and the provenance records for that edge.
type CQSConfig struct {
	ResultsLimit     int
	AttributeTypeIDs []string
	EdgeSources      []EdgeSource
}

// Template is a named, versioned query skeleton bound to one downstream provider.
type Template struct {
	Name          string
	DiseaseNodeID string // the template's own query-graph node id for the disease position
	DrugNodeID    string // the template's own query-graph node id for the drug position
	Query         trapi.Query
	Config        CQSConfig
}

// Registry is the ordered, process-wide immutable list of canned templates.
type Registry struct {
	templates []Template
}

// NewRegistry loads every template named in the manifest from dir, in manifest order. Any
// failure — a missing file or malformed JSON — is a fatal configuration error, matching spec
// §4.1: the registry cannot start partially populated.
func NewRegistry(manifest *Manifest, dir string) (*Registry, error) {
	templates := make([]Template, 0, len(manifest.Templates))

	for _, entry := range manifest.Templates {
		tpl, err := loadTemplate(dir, entry)
		if err != nil {
			return nil, fmt.Errorf("loading template %q: %w", entry.Name, err)
		}

		templates = append(templates, tpl)
	}

	return &Registry{templates: templates}, nil
}

func loadTemplate(dir string, entry ManifestEntry) (Template, error) {
	data, err := os.ReadFile(filepath.Join(dir, entry.File)) //nolint:gosec // dir/file are from trusted config
	if err != nil {
		return Template{}, err
	}

	var q trapi.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Template{}, fmt.Errorf("parsing template json: %w", err)
	}

	sources := make([]EdgeSource, 0, len(entry.EdgeSources))
	for _, s := range entry.EdgeSources {
		sources = append(sources, EdgeSource{ResourceID: s.ResourceID, ResourceRole: s.ResourceRole})
	}

	return Template{
		Name:          entry.Name,
		DiseaseNodeID: entry.DiseaseNodeID,
		DrugNodeID:    entry.DrugNodeID,
		Query:         q,
		Config: CQSConfig{
			ResultsLimit:     entry.ResultsLimit,
			AttributeTypeIDs: entry.AttributeTypeIDs,
			EdgeSources:      sources,
		},
	}, nil
}

// Templates returns the registry's templates in registration order. The slice is owned by the
// registry; callers must not mutate it.
func (r *Registry) Templates() []Template {
	return r.templates
}
