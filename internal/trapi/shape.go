package trapi

import "errors"

// ErrUnhandledShape is returned when a query graph does not match the one shape this service
// understands: a single edge whose predicates include biolink:treats and whose knowledge_type is
// "inferred".
var ErrUnhandledShape = errors.New("query graph is not a one-hop inferred treats query")

// TreatsEdge identifies the one-hop inferred-treats edge of a query graph, if present.
type TreatsEdge struct {
	EdgeID       string
	SubjectID    string // query-graph node id for the drug position
	ObjectID     string // query-graph node id for the disease position
	SubjectCuries []CURIE
	ObjectCuries  []CURIE
}

// FindTreatsEdge inspects a query graph for the single shape this service handles: exactly one
// edge whose predicates contains "biolink:treats" and whose knowledge_type is "inferred". Returns
// ErrUnhandledShape for every other shape, including zero matching edges or more than one.
func FindTreatsEdge(qg *QueryGraph) (TreatsEdge, error) {
	if qg == nil {
		return TreatsEdge{}, ErrUnhandledShape
	}

	var (
		found   TreatsEdge
		matches int
	)

	for edgeID, edge := range qg.Edges {
		if edge.KnowledgeType != KnowledgeTypeInferred {
			continue
		}

		if !containsString(edge.Predicates, PredicateTreats) {
			continue
		}

		matches++
		found = TreatsEdge{
			EdgeID:    edgeID,
			SubjectID: edge.Subject,
			ObjectID:  edge.Object,
		}
	}

	if matches != 1 {
		return TreatsEdge{}, ErrUnhandledShape
	}

	if objNode, ok := qg.Nodes[found.ObjectID]; ok {
		found.ObjectCuries = objNode.IDs
	}

	if subjNode, ok := qg.Nodes[found.SubjectID]; ok {
		found.SubjectCuries = subjNode.IDs
	}

	return found, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
