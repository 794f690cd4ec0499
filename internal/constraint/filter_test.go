package constraint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TranslatorSRI/cqs/internal/constraint"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()

	b, err := json.Marshal(v)
	assert.NoError(t, err)

	return b
}

func TestEdgesToDrop(t *testing.T) {
	t.Run("set intersection keeps overlapping array values", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "biolink:phase", Value: rawJSON(t, []string{"phase_1"})}}},
			"e2": {Attributes: []trapi.Attribute{{AttributeTypeID: "biolink:phase", Value: rawJSON(t, []string{"phase_2", "phase_3"})}}},
		}
		c := trapi.AttributeConstraint{ID: "biolink:phase", Operator: constraint.OpEqual, Value: rawJSON(t, []string{"phase_2", "phase_3"})}

		drop := constraint.EdgesToDrop(c, edges)
		_, e1Dropped := drop["e1"]
		_, e2Dropped := drop["e2"]
		assert.True(t, e1Dropped)
		assert.False(t, e2Dropped)
	})

	t.Run("== with single overlapping element keeps the edge", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "biolink:phase", Value: rawJSON(t, []string{"phase_2", "phase_3"})}}},
		}
		c := trapi.AttributeConstraint{ID: "biolink:phase", Operator: constraint.OpEqual, Value: rawJSON(t, []string{"phase_2"})}

		drop := constraint.EdgesToDrop(c, edges)
		assert.Empty(t, drop)
	})

	t.Run("absent attribute is never dropped", func(t *testing.T) {
		edges := map[string]trapi.Edge{"e1": {}}
		c := trapi.AttributeConstraint{ID: "biolink:phase", Operator: constraint.OpGreaterThan, Value: rawJSON(t, 1)}

		assert.Empty(t, constraint.EdgesToDrop(c, edges))
	})

	t.Run("unsupported operator is a no-op", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "biolink:phase", Value: rawJSON(t, 1)}}},
		}
		c := trapi.AttributeConstraint{ID: "biolink:phase", Operator: "~=", Value: rawJSON(t, 1)}

		assert.Empty(t, constraint.EdgesToDrop(c, edges))
	})

	t.Run("> keeps edge value strictly greater", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "n", Value: rawJSON(t, 5)}}},
			"e2": {Attributes: []trapi.Attribute{{AttributeTypeID: "n", Value: rawJSON(t, 1)}}},
		}
		c := trapi.AttributeConstraint{ID: "n", Operator: constraint.OpGreaterThan, Value: rawJSON(t, 3)}

		drop := constraint.EdgesToDrop(c, edges)
		_, e2Dropped := drop["e2"]
		_, e1Dropped := drop["e1"]
		assert.True(t, e2Dropped)
		assert.False(t, e1Dropped)
	})

	t.Run("matches evaluates a regular expression", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "n", Value: rawJSON(t, "hello-123")}}},
			"e2": {Attributes: []trapi.Attribute{{AttributeTypeID: "n", Value: rawJSON(t, "nope")}}},
		}
		c := trapi.AttributeConstraint{ID: "n", Operator: constraint.OpMatches, Value: rawJSON(t, `^hello-\d+$`)}

		drop := constraint.EdgesToDrop(c, edges)
		_, e2Dropped := drop["e2"]
		_, e1Dropped := drop["e1"]
		assert.True(t, e2Dropped)
		assert.False(t, e1Dropped)
	})

	t.Run("=== requires full structural equality", func(t *testing.T) {
		edges := map[string]trapi.Edge{
			"e1": {Attributes: []trapi.Attribute{{AttributeTypeID: "n", Value: rawJSON(t, []string{"a", "b"})}}},
		}
		c := trapi.AttributeConstraint{ID: "n", Operator: constraint.OpIdentical, Value: rawJSON(t, []string{"b", "a"})}

		drop := constraint.EdgesToDrop(c, edges)
		_, dropped := drop["e1"]
		assert.True(t, dropped, "order matters for ===")
	})
}
