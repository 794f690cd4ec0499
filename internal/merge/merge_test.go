package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TranslatorSRI/cqs/internal/merge"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

func TestInto(t *testing.T) {
	t.Run("appends nodes, edges and results from source", func(t *testing.T) {
		acc := trapi.EmptyMessage()
		src := trapi.Message{
			KnowledgeGraph: &trapi.KnowledgeGraph{
				Nodes: map[string]trapi.Node{"n1": {Name: "drug"}},
				Edges: map[string]trapi.Edge{"e1": {Subject: "n1", Object: "n2"}},
			},
			Results: []trapi.Result{{NodeBindings: map[string][]trapi.NodeBinding{}}},
		}

		merge.Into(&acc, src)

		assert.Len(t, acc.KnowledgeGraph.Nodes, 1)
		assert.Len(t, acc.KnowledgeGraph.Edges, 1)
		assert.Len(t, acc.Results, 1)
	})

	t.Run("last writer wins on key collision", func(t *testing.T) {
		acc := trapi.Message{
			KnowledgeGraph: &trapi.KnowledgeGraph{
				Nodes: map[string]trapi.Node{"n1": {Name: "first"}},
				Edges: map[string]trapi.Edge{},
			},
			Results: []trapi.Result{},
		}
		src := trapi.Message{
			KnowledgeGraph: &trapi.KnowledgeGraph{
				Nodes: map[string]trapi.Node{"n1": {Name: "second"}},
			},
		}

		merge.Into(&acc, src)

		assert.Equal(t, "second", acc.KnowledgeGraph.Nodes["n1"].Name)
	})

	t.Run("merging nothing leaves an empty results slice", func(t *testing.T) {
		acc := trapi.EmptyMessage()
		merge.Into(&acc, trapi.Message{})
		assert.Equal(t, []trapi.Result{}, acc.Results)
	})
}
