// Package merge deep-merges TRAPI response messages produced by concurrent template branches
// into one accumulator message.
package merge

import "github.com/TranslatorSRI/cqs/internal/trapi"

// Into appends source's nodes, edges, results, and auxiliary graphs onto accumulator. Last writer
// wins on key collision; template responses carry globally opaque ids so collisions are rare and
// benign.
func Into(accumulator *trapi.Message, source trapi.Message) {
	if accumulator.KnowledgeGraph == nil {
		accumulator.KnowledgeGraph = &trapi.KnowledgeGraph{
			Nodes: map[string]trapi.Node{},
			Edges: map[string]trapi.Edge{},
		}
	}

	if source.KnowledgeGraph != nil {
		for id, node := range source.KnowledgeGraph.Nodes {
			accumulator.KnowledgeGraph.Nodes[id] = node
		}

		for id, edge := range source.KnowledgeGraph.Edges {
			accumulator.KnowledgeGraph.Edges[id] = edge
		}
	}

	if len(source.Results) > 0 {
		accumulator.Results = append(accumulator.Results, source.Results...)
	}

	if len(source.AuxiliaryGraphs) > 0 {
		if accumulator.AuxiliaryGraphs == nil {
			accumulator.AuxiliaryGraphs = map[string]trapi.AuxGraph{}
		}

		for id, ag := range source.AuxiliaryGraphs {
			accumulator.AuxiliaryGraphs[id] = ag
		}
	}
}
