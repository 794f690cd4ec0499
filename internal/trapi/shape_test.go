package trapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

func TestFindTreatsEdge(t *testing.T) {
	t.Run("matches the one-hop inferred treats shape", func(t *testing.T) {
		qg := &trapi.QueryGraph{
			Nodes: map[string]trapi.QNode{
				"n0": {Categories: []string{"biolink:ChemicalEntity"}},
				"n1": {IDs: []trapi.CURIE{"MONDO:0004979"}},
			},
			Edges: map[string]trapi.QEdge{
				"e0": {
					Subject:        "n0",
					Object:         "n1",
					Predicates:     []string{trapi.PredicateTreats},
					KnowledgeType:  trapi.KnowledgeTypeInferred,
				},
			},
		}

		got, err := trapi.FindTreatsEdge(qg)
		require.NoError(t, err)
		assert.Equal(t, "e0", got.EdgeID)
		assert.Equal(t, "n0", got.SubjectID)
		assert.Equal(t, "n1", got.ObjectID)
		assert.Equal(t, []trapi.CURIE{"MONDO:0004979"}, got.ObjectCuries)
	})

	t.Run("rejects a lookup query", func(t *testing.T) {
		qg := &trapi.QueryGraph{
			Nodes: map[string]trapi.QNode{"n0": {}, "n1": {}},
			Edges: map[string]trapi.QEdge{
				"e0": {Subject: "n0", Object: "n1", Predicates: []string{trapi.PredicateTreats}},
			},
		}

		_, err := trapi.FindTreatsEdge(qg)
		assert.ErrorIs(t, err, trapi.ErrUnhandledShape)
	})

	t.Run("rejects a query with no edges", func(t *testing.T) {
		qg := &trapi.QueryGraph{Nodes: map[string]trapi.QNode{}, Edges: map[string]trapi.QEdge{}}

		_, err := trapi.FindTreatsEdge(qg)
		assert.ErrorIs(t, err, trapi.ErrUnhandledShape)
	})

	t.Run("rejects a nil query graph", func(t *testing.T) {
		_, err := trapi.FindTreatsEdge(nil)
		assert.ErrorIs(t, err, trapi.ErrUnhandledShape)
	})
}

func TestParseCURIE(t *testing.T) {
	prefix, local, err := trapi.ParseCURIE("MONDO:0004979")
	require.NoError(t, err)
	assert.Equal(t, "MONDO", prefix)
	assert.Equal(t, "0004979", local)

	_, _, err = trapi.ParseCURIE("not-a-curie")
	assert.ErrorIs(t, err, trapi.ErrCURIEMissingDelimiter)

	assert.True(t, trapi.ValidCURIE("MONDO:0004979"))
	assert.False(t, trapi.ValidCURIE(""))
}
