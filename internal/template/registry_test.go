package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/template"
)

const sampleTemplateJSON = `{
  "message": {
    "query_graph": {
      "nodes": {"n0": {"categories": ["biolink:ChemicalEntity"]}, "n1": {}},
      "edges": {"e0": {"subject": "n0", "object": "n1", "predicates": ["biolink:treats"], "knowledge_type": "inferred"}}
    }
  }
}`

const sampleManifestYAML = `
templates:
  - name: example-provider
    file: example.json
    disease_node_id: n1
    drug_node_id: n0
    results_limit: 10
    attribute_type_ids: ["biolink:FDA_approval_status"]
    edge_sources:
      - resource_id: infores:example-provider
        resource_role: primary_knowledge_source
`

func writeFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(sampleManifestYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.json"), []byte(sampleTemplateJSON), 0o600))

	return dir
}

func TestLoadManifestAndRegistry(t *testing.T) {
	dir := writeFixture(t)

	manifest, err := template.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)
	require.Len(t, manifest.Templates, 1)

	reg, err := template.NewRegistry(manifest, dir)
	require.NoError(t, err)
	require.Len(t, reg.Templates(), 1)

	tpl := reg.Templates()[0]
	assert.Equal(t, "example-provider", tpl.Name)
	assert.Equal(t, "n1", tpl.DiseaseNodeID)
	assert.Equal(t, "n0", tpl.DrugNodeID)
	assert.Equal(t, 10, tpl.Config.ResultsLimit)
	require.Len(t, tpl.Config.EdgeSources, 1)
	assert.Equal(t, "infores:example-provider", tpl.Config.EdgeSources[0].ResourceID)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := template.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRegistryMissingTemplateFile(t *testing.T) {
	dir := t.TempDir()
	manifest := &template.Manifest{Templates: []template.ManifestEntry{
		{Name: "broken", File: "does-not-exist.json", DiseaseNodeID: "n1", DrugNodeID: "n0"},
	}}

	_, err := template.NewRegistry(manifest, dir)
	assert.Error(t, err)
}
