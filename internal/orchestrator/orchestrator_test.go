package orchestrator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/orchestrator"
	"github.com/TranslatorSRI/cqs/internal/template"
	"github.com/TranslatorSRI/cqs/internal/trapi"
	"github.com/TranslatorSRI/cqs/internal/upstream"
)

func treatsQuery() trapi.Query {
	return trapi.Query{
		Message: trapi.Message{
			QueryGraph: &trapi.QueryGraph{
				Nodes: map[string]trapi.QNode{
					"n0": {},
					"n1": {IDs: []trapi.CURIE{"MONDO:0004979"}},
				},
				Edges: map[string]trapi.QEdge{
					"e0": {
						Subject:       "n0",
						Object:        "n1",
						Predicates:    []string{trapi.PredicateTreats},
						KnowledgeType: trapi.KnowledgeTypeInferred,
					},
				},
			},
		},
	}
}

func sampleProviderTemplate(name string) template.Template {
	return template.Template{
		Name:          name,
		DiseaseNodeID: "n1",
		DrugNodeID:    "n0",
		Query: trapi.Query{
			Message: trapi.Message{
				QueryGraph: &trapi.QueryGraph{
					Nodes: map[string]trapi.QNode{"n0": {}, "n1": {}},
					Edges: map[string]trapi.QEdge{
						"e0": {Subject: "n0", Object: "n1", Predicates: []string{trapi.PredicateTreats}},
					},
				},
			},
		},
		Config: template.CQSConfig{
			EdgeSources: []template.EdgeSource{{ResourceID: "infores:" + name, ResourceRole: "primary_knowledge_source"}},
		},
	}
}

// fakeRegistry satisfies orchestrator.Registry with a fixed template set, without requiring a
// manifest on disk.
type fakeRegistry struct {
	templates []template.Template
}

func (f fakeRegistry) Templates() []template.Template {
	return f.templates
}

func newRegistryForTest(_ *testing.T, templates ...template.Template) fakeRegistry {
	return fakeRegistry{templates: templates}
}

func TestOrchestrator_Run_TwoTemplatesOneResultEach(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q trapi.Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))

		curie := q.Message.QueryGraph.Nodes["n1"].IDs[0]

		_ = json.NewEncoder(w).Encode(trapi.Response{
			Message: trapi.Message{
				KnowledgeGraph: &trapi.KnowledgeGraph{
					Edges: map[string]trapi.Edge{
						"raw-1": {Subject: "CHEBI:1", Object: string(curie)},
					},
				},
				Results: []trapi.Result{
					{
						NodeBindings: map[string][]trapi.NodeBinding{
							"n0": {{ID: "CHEBI:1"}},
							"n1": {{ID: string(curie)}},
						},
						Analyses: []trapi.Analysis{{}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL)
	registry := newRegistryForTest(t, sampleProviderTemplate("provider-a"), sampleProviderTemplate("provider-b"))

	o := orchestrator.New(registry, client, orchestrator.Config{SchemaVersion: "1.5.0", BiolinkVersion: "4.2.0"})

	resp := o.Run(context.Background(), treatsQuery())

	assert.Equal(t, trapi.StatusSuccess, resp.Status)
	assert.Equal(t, "1.5.0", resp.SchemaVersion)
	require.Len(t, resp.Message.Results, 2)

	for _, r := range resp.Message.Results {
		require.Len(t, r.Analyses, 1)
		require.NotNil(t, r.Analyses[0].Score)
	}
}

func TestOrchestrator_Run_UnhandledShapeYieldsEmptySuccess(t *testing.T) {
	registry := newRegistryForTest(t, sampleProviderTemplate("provider-a"))
	client := upstream.NewClient("http://unused.invalid")

	o := orchestrator.New(registry, client, orchestrator.Config{})

	lookupQuery := trapi.Query{
		Message: trapi.Message{
			QueryGraph: &trapi.QueryGraph{
				Nodes: map[string]trapi.QNode{"n0": {}, "n1": {}},
				Edges: map[string]trapi.QEdge{
					"e0": {Subject: "n0", Object: "n1", Predicates: []string{"biolink:related_to"}},
				},
			},
		},
	}

	resp := o.Run(context.Background(), lookupQuery)

	assert.Equal(t, trapi.StatusSuccess, resp.Status)
	assert.Empty(t, resp.Message.Results)
}

func TestOrchestrator_Run_ZeroTemplatesYieldsEmptyResults(t *testing.T) {
	registry := newRegistryForTest(t)
	client := upstream.NewClient("http://unused.invalid")

	o := orchestrator.New(registry, client, orchestrator.Config{})

	resp := o.Run(context.Background(), treatsQuery())

	assert.Equal(t, trapi.StatusSuccess, resp.Status)
	assert.Empty(t, resp.Message.Results)
}

func TestOrchestrator_Run_DebugOutputDirWritesSnapshots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q trapi.Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))

		curie := q.Message.QueryGraph.Nodes["n1"].IDs[0]

		_ = json.NewEncoder(w).Encode(trapi.Response{
			Message: trapi.Message{
				KnowledgeGraph: &trapi.KnowledgeGraph{
					Edges: map[string]trapi.Edge{"raw-1": {Subject: "CHEBI:1", Object: string(curie)}},
				},
				Results: []trapi.Result{
					{
						NodeBindings: map[string][]trapi.NodeBinding{
							"n0": {{ID: "CHEBI:1"}},
							"n1": {{ID: string(curie)}},
						},
						Analyses: []trapi.Analysis{{}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := upstream.NewClient(srv.URL)
	registry := newRegistryForTest(t, sampleProviderTemplate("provider-a"))

	o := orchestrator.New(registry, client, orchestrator.Config{DebugOutputDir: dir})

	o.Run(context.Background(), treatsQuery())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sawRaw, sawRewritten bool

	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".raw.json"):
			sawRaw = true
		case strings.HasSuffix(e.Name(), ".rewritten.json"):
			sawRewritten = true
		}

		assert.True(t, strings.HasPrefix(e.Name(), "provider-a-"))
	}

	assert.True(t, sawRaw)
	assert.True(t, sawRewritten)
}
