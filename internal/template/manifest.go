package template

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TranslatorSRI/cqs/internal/config"
)

type (
	// ManifestEntry describes one canned template's metadata: its file on disk and the CQS
	// config block from spec §3.
	ManifestEntry struct {
		Name             string          `yaml:"name"`
		File             string          `yaml:"file"`
		DiseaseNodeID    string          `yaml:"disease_node_id"`
		DrugNodeID       string          `yaml:"drug_node_id"`
		ResultsLimit     int             `yaml:"results_limit,omitempty"`
		AttributeTypeIDs []string        `yaml:"attribute_type_ids,omitempty"`
		EdgeSources      []ManifestEdgeSource `yaml:"edge_sources"`
	}

	// ManifestEdgeSource is the provenance record attached to the synthesized aggregate edge.
	ManifestEdgeSource struct {
		ResourceID   string `yaml:"resource_id"`
		ResourceRole string `yaml:"resource_role"`
	}

	// Manifest is the whitelist of canned templates, loaded from templates/manifest.yaml.
	Manifest struct {
		Templates []ManifestEntry `yaml:"templates"`
	}
)

// ErrManifestEmpty is returned when a manifest loads successfully but names no templates.
var ErrManifestEmpty = errors.New("template manifest contains no templates")

// LoadManifest reads and parses the manifest at path. Unlike the aliasing package's optional
// dataset-pattern config, a missing or malformed template manifest is a fatal configuration error
// (spec §4.1): the registry cannot start with zero templates.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted configuration
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if len(m.Templates) == 0 {
		return nil, ErrManifestEmpty
	}

	slog.Debug("loaded template manifest", slog.Int("count", len(m.Templates)), slog.String("path", path))

	return &m, nil
}

// LoadManifestFromEnv loads the manifest from TEMPLATE_MANIFEST_PATH, defaulting to
// "templates/manifest.yaml".
func LoadManifestFromEnv() (*Manifest, error) {
	path := config.GetEnvStr("TEMPLATE_MANIFEST_PATH", "templates/manifest.yaml")

	return LoadManifest(path)
}
