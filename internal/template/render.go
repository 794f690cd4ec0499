package template

import (
	"encoding/json"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// Render sets the template's disease-position node's ids to curies and strips every edge's
// attribute_constraints from the outgoing query. It returns at most one of them separately, the
// first constraint of an edge that carries any, so it can be enforced locally after the response
// returns (see internal/constraint); the others are dropped, and when several edges carry
// constraints, which edge's constraint is returned is not defined.
//
// Per spec R3, rendering with an empty curie list yields a query whose disease-position node has
// ids == [].
func (t Template) Render(curies []trapi.CURIE) (trapi.Query, *trapi.AttributeConstraint) {
	rendered := cloneQuery(t.Query)

	if rendered.Message.QueryGraph == nil {
		return rendered, nil
	}

	if node, ok := rendered.Message.QueryGraph.Nodes[t.DiseaseNodeID]; ok {
		if curies == nil {
			curies = []trapi.CURIE{}
		}

		node.IDs = curies
		rendered.Message.QueryGraph.Nodes[t.DiseaseNodeID] = node
	}

	var extracted *trapi.AttributeConstraint

	for edgeID, edge := range rendered.Message.QueryGraph.Edges {
		if len(edge.AttributeConstraints) == 0 {
			continue
		}

		if extracted == nil {
			c := edge.AttributeConstraints[0]
			extracted = &c
		}

		edge.AttributeConstraints = nil
		rendered.Message.QueryGraph.Edges[edgeID] = edge
	}

	return rendered, extracted
}

// cloneQuery performs a deep copy via JSON round-trip: templates are small, fixed documents
// re-rendered once per incoming request, so the marshal/unmarshal cost is negligible and it
// guarantees no shared state leaks between concurrent renders of the same template.
func cloneQuery(q trapi.Query) trapi.Query {
	data, err := json.Marshal(q)
	if err != nil {
		return q
	}

	var clone trapi.Query
	if err := json.Unmarshal(data, &clone); err != nil {
		return q
	}

	return clone
}
