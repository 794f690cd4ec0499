package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/template"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

func sampleTemplate() template.Template {
	return template.Template{
		Name:          "example",
		DiseaseNodeID: "n1",
		DrugNodeID:    "n0",
		Query: trapi.Query{
			Message: trapi.Message{
				QueryGraph: &trapi.QueryGraph{
					Nodes: map[string]trapi.QNode{
						"n0": {Categories: []string{"biolink:ChemicalEntity"}},
						"n1": {},
					},
					Edges: map[string]trapi.QEdge{
						"e0": {
							Subject:    "n0",
							Object:     "n1",
							Predicates: []string{trapi.PredicateTreats},
							AttributeConstraints: []trapi.AttributeConstraint{
								{ID: "biolink:phase", Operator: "=="},
							},
						},
					},
				},
			},
		},
	}
}

func TestRender(t *testing.T) {
	t.Run("sets the disease node's ids", func(t *testing.T) {
		rendered, constraint := sampleTemplate().Render([]trapi.CURIE{"MONDO:0004979"})

		assert.Equal(t, []trapi.CURIE{"MONDO:0004979"}, rendered.Message.QueryGraph.Nodes["n1"].IDs)
		require.NotNil(t, constraint)
		assert.Equal(t, "biolink:phase", constraint.ID)
	})

	t.Run("empty curie list yields ids == []", func(t *testing.T) {
		rendered, _ := sampleTemplate().Render(nil)
		assert.Equal(t, []trapi.CURIE{}, rendered.Message.QueryGraph.Nodes["n1"].IDs)
	})

	t.Run("strips attribute_constraints from the outgoing query", func(t *testing.T) {
		rendered, _ := sampleTemplate().Render([]trapi.CURIE{"MONDO:0004979"})
		assert.Empty(t, rendered.Message.QueryGraph.Edges["e0"].AttributeConstraints)
	})

	t.Run("does not mutate the template's own query between renders", func(t *testing.T) {
		tpl := sampleTemplate()
		_, _ = tpl.Render([]trapi.CURIE{"MONDO:1"})
		rendered2, _ := tpl.Render([]trapi.CURIE{"MONDO:2"})
		assert.Equal(t, []trapi.CURIE{"MONDO:2"}, rendered2.Message.QueryGraph.Nodes["n1"].IDs)
		assert.NotEmpty(t, tpl.Query.Message.QueryGraph.Edges["e0"].AttributeConstraints)
	})
}
