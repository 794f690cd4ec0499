// Package rewrite implements the per-template post-processing step (C6): constraint filtering,
// composite-score synthesis, aggregate-edge creation, and auxiliary-graph bookkeeping.
package rewrite

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/TranslatorSRI/cqs/internal/constraint"
	"github.com/TranslatorSRI/cqs/internal/scoring"
	"github.com/TranslatorSRI/cqs/internal/template"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

const scoringMethod = "weighted average of log_odds_ratio"

// Input bundles everything one template branch's rewrite step needs.
type Input struct {
	Response        trapi.Response
	Template        template.Template
	Constraint      *trapi.AttributeConstraint
	CallerSubjectID string // caller's query-graph node id for the drug/subject position
	CallerObjectID  string // caller's query-graph node id for the disease/object position
	CallerEdgeID    string // caller's query-graph edge id (e.g. "e0")
}

// Rewrite runs the full per-template post-processing pipeline and returns a message ready to be
// merged into the aggregate response (C5).
func Rewrite(in Input) trapi.Message {
	kg := cloneKnowledgeGraph(in.Response.Message.KnowledgeGraph)
	results := in.Response.Message.Results

	if in.Constraint != nil {
		drop := constraint.EdgesToDrop(*in.Constraint, kg.Edges)
		for id := range drop {
			delete(kg.Edges, id)
		}

		results = dropResultsReferencingDropped(results, drop)
	}

	observations := buildObservationsByPair(kg.Edges)

	auxGraphs := map[string]trapi.AuxGraph{}
	kept := make([]trapi.Result, 0, len(results))

	for _, result := range results {
		rewritten, ok := rewriteResult(result, in, kg, observations, auxGraphs)
		if !ok {
			continue
		}

		kept = append(kept, rewritten)
	}

	sortByScore(kept)

	if in.Template.Config.ResultsLimit > 0 && len(kept) > in.Template.Config.ResultsLimit {
		kept = kept[:in.Template.Config.ResultsLimit]
	}

	return trapi.Message{
		Results:         kept,
		KnowledgeGraph:  kg,
		AuxiliaryGraphs: auxGraphs,
	}
}

func dropResultsReferencingDropped(results []trapi.Result, dropped map[string]struct{}) []trapi.Result {
	kept := make([]trapi.Result, 0, len(results))

	for _, r := range results {
		if referencesAny(r, dropped) {
			continue
		}

		kept = append(kept, r)
	}

	return kept
}

func referencesAny(r trapi.Result, ids map[string]struct{}) bool {
	for _, analysis := range r.Analyses {
		for _, bindings := range analysis.EdgeBindings {
			for _, b := range bindings {
				if _, ok := ids[b.ID]; ok {
					return true
				}
			}
		}
	}

	return false
}

// rewriteResult synthesizes the single composite-score analysis and aggregate edge for one
// result, per spec §4.6 steps 2a-2d. Returns ok=false when the result has nothing to contribute
// (missing node bindings, or no knowledge-graph edges connect its subject/object pair).
func rewriteResult(
	result trapi.Result,
	in Input,
	kg *trapi.KnowledgeGraph,
	observations map[string]observationBag,
	auxGraphs map[string]trapi.AuxGraph,
) (trapi.Result, bool) {
	subjectBindings := result.NodeBindings[in.Template.DrugNodeID]
	objectBindings := result.NodeBindings[in.Template.DiseaseNodeID]

	if len(subjectBindings) == 0 || len(objectBindings) == 0 {
		return trapi.Result{}, false
	}

	subjectID := subjectBindings[0].ID
	objectID := objectBindings[0].ID

	bag, ok := observations[pairKey(subjectID, objectID)]
	if !ok {
		bag, ok = observations[pairKey(objectID, subjectID)]
	}

	if !ok || len(bag.observations) == 0 {
		return trapi.Result{}, false
	}

	score := scoring.Composite(bag.observations)

	auxID := "ag-" + uuid.NewString()
	auxGraphs[auxID] = trapi.AuxGraph{Edges: bag.edgeIDs}

	eNewID := "e-" + uuid.NewString()
	kg.Edges[eNewID] = buildAggregateEdge(in.Template, kg, subjectID, objectID, auxID)

	analysis := trapi.Analysis{
		ResourceID:    trapi.InforesCQS,
		Score:         &score,
		ScoringMethod: scoringMethod,
		EdgeBindings: map[string][]trapi.EdgeBinding{
			in.CallerEdgeID: {{ID: eNewID}},
		},
	}

	return trapi.Result{
		NodeBindings: map[string][]trapi.NodeBinding{
			in.CallerSubjectID: subjectBindings,
			in.CallerObjectID:  objectBindings,
		},
		Analyses: []trapi.Analysis{analysis},
	}, true
}

func buildAggregateEdge(tpl template.Template, kg *trapi.KnowledgeGraph, subjectID, objectID, auxID string) trapi.Edge {
	sources := make([]trapi.RetrievalSource, 0, len(tpl.Config.EdgeSources))

	for i, s := range tpl.Config.EdgeSources {
		role := s.ResourceRole
		if i == 0 && role == "" {
			role = trapi.ResourceRolePrimaryKnowledgeSource
		}

		sources = append(sources, trapi.RetrievalSource{ResourceID: s.ResourceID, ResourceRole: role})
	}

	edge := trapi.Edge{
		Predicate: trapi.PredicateTreats,
		Subject:   subjectID,
		Object:    objectID,
		Sources:   sources,
		Attributes: []trapi.Attribute{
			{AttributeTypeID: trapi.AttrSupportGraphs, Value: mustJSON([]string{auxID})},
			{AttributeTypeID: trapi.AttrAgentType, Value: mustJSON(trapi.AgentTypeComputationalModel), AttributeSource: trapi.InforesCQS},
			{AttributeTypeID: trapi.AttrKnowledgeLevel, Value: mustJSON(trapi.KnowledgeLevelPrediction), AttributeSource: trapi.InforesCQS},
		},
	}

	if len(tpl.Config.AttributeTypeIDs) > 0 {
		edge.Attributes = append(edge.Attributes, copiedAttributes(kg, subjectID, objectID, tpl.Config.AttributeTypeIDs)...)
	}

	return edge
}

// copiedAttributes locates any existing edge connecting the same two endpoints and copies
// attributes whose ids appear in allowed onto the synthesized edge.
func copiedAttributes(kg *trapi.KnowledgeGraph, subjectID, objectID string, allowed []string) []trapi.Attribute {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}

	var copied []trapi.Attribute

	for _, edge := range kg.Edges {
		if edge.Subject != subjectID || edge.Object != objectID {
			continue
		}

		for _, a := range edge.Attributes {
			if _, ok := allowedSet[a.AttributeTypeID]; ok {
				copied = append(copied, a)
			}
		}
	}

	return copied
}

func sortByScore(results []trapi.Result) {
	less := func(i, j int) bool {
		si := scoreOf(results[i])
		sj := scoreOf(results[j])

		return si > sj
	}

	// Insertion sort is sufficient here: per-template result counts are small, and this keeps the
	// comparator simple to reason about without importing sort for a one-off.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func scoreOf(r trapi.Result) float64 {
	if len(r.Analyses) == 0 || r.Analyses[0].Score == nil {
		return -1 << 62 // sorts last without importing math for a single comparison
	}

	return *r.Analyses[0].Score
}

func pairKey(a, b string) string {
	return a + "\x00" + b
}

func cloneKnowledgeGraph(kg *trapi.KnowledgeGraph) *trapi.KnowledgeGraph {
	clone := &trapi.KnowledgeGraph{
		Nodes: map[string]trapi.Node{},
		Edges: map[string]trapi.Edge{},
	}

	if kg == nil {
		return clone
	}

	for id, n := range kg.Nodes {
		clone.Nodes[id] = n
	}

	for id, e := range kg.Edges {
		clone.Edges[id] = e
	}

	return clone
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}

	return b
}
