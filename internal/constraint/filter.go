// Package constraint implements attribute-constraint filtering of knowledge-graph edges.
package constraint

import (
	"encoding/json"
	"regexp"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// Operators supported by EdgesToDrop. Any other operator is a no-op (the edge is kept).
const (
	OpGreaterThan = ">"
	OpLessThan    = "<"
	OpEqual       = "=="
	OpIdentical   = "==="
	OpMatches     = "matches"
)

// EdgesToDrop evaluates constraint against every edge in edges and returns the set of edge ids
// that fail it. An edge lacking the constrained attribute is never dropped; an unsupported
// operator drops nothing.
func EdgesToDrop(c trapi.AttributeConstraint, edges map[string]trapi.Edge) map[string]struct{} {
	drop := make(map[string]struct{})

	for id, edge := range edges {
		attr, ok := findAttribute(edge, c.ID)
		if !ok {
			continue
		}

		if !satisfies(c, attr.Value) {
			drop[id] = struct{}{}
		}
	}

	return drop
}

func findAttribute(edge trapi.Edge, attributeTypeID string) (trapi.Attribute, bool) {
	for _, a := range edge.Attributes {
		if a.AttributeTypeID == attributeTypeID {
			return a, true
		}
	}

	return trapi.Attribute{}, false
}

// satisfies reports whether edgeValue keeps the edge under constraint c. Any coercion failure
// (non-numeric compared with >/<, non-string matched, etc.) is treated as "constraint does not
// apply" per the error-handling taxonomy: the edge is kept.
func satisfies(c trapi.AttributeConstraint, edgeValue json.RawMessage) bool {
	switch c.Operator {
	case OpGreaterThan:
		return compareNumeric(edgeValue, c.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(edgeValue, c.Value, func(a, b float64) bool { return a < b })
	case OpEqual:
		return equalOrIntersects(edgeValue, c.Value)
	case OpIdentical:
		return identical(edgeValue, c.Value)
	case OpMatches:
		return matches(edgeValue, c.Value)
	default:
		return true
	}
}

func compareNumeric(edgeValue, constraintValue json.RawMessage, cmp func(a, b float64) bool) bool {
	a, aok := asFloat(edgeValue)
	b, bok := asFloat(constraintValue)

	if !aok || !bok {
		return true
	}

	return cmp(a, b)
}

func asFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if coerced, err := parseFloat(s); err == nil {
			return coerced, true
		}
	}

	return 0, false
}

// equalOrIntersects implements "==": scalar equality, or for array-valued attributes, keep iff
// the edge's array and the constraint's array share at least one element.
func equalOrIntersects(edgeValue, constraintValue json.RawMessage) bool {
	var edgeArr, constraintArr []json.RawMessage
	edgeIsArray := json.Unmarshal(edgeValue, &edgeArr) == nil && isJSONArray(edgeValue)
	constraintIsArray := json.Unmarshal(constraintValue, &constraintArr) == nil && isJSONArray(constraintValue)

	if edgeIsArray && constraintIsArray {
		set := make(map[string]struct{}, len(constraintArr))
		for _, v := range constraintArr {
			set[string(v)] = struct{}{}
		}

		for _, v := range edgeArr {
			if _, ok := set[string(v)]; ok {
				return true
			}
		}

		return false
	}

	return jsonEqual(edgeValue, constraintValue)
}

// identical implements "===": full structural equality, including array order.
func identical(edgeValue, constraintValue json.RawMessage) bool {
	return jsonEqual(edgeValue, constraintValue)
}

func matches(edgeValue, constraintValue json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(edgeValue, &s); err != nil {
		return true
	}

	var pattern string
	if err := json.Unmarshal(constraintValue, &pattern); err != nil {
		return true
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return true
	}

	return re.MatchString(s)
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}

	return false
}

func jsonEqual(a, b json.RawMessage) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}

	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}

	return deepEqual(av, bv)
}
