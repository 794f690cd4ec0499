// Package trapi defines the TRAPI (Translator Reasoner API) wire types this service reads and
// writes. These are treated as an external schema: the core pipeline packages only construct and
// inspect these types, they never own the format itself.
package trapi

import "encoding/json"

type (
	// CURIE is a compact identifier of the form "PREFIX:LOCALID".
	CURIE = string

	// Attribute is a TRAPI attribute: a typed, provenanced fact attached to a node or edge.
	// Value is a raw JSON value since TRAPI attribute values are dynamically typed
	// (null, bool, number, string, array, object).
	Attribute struct {
		AttributeTypeID        CURIE           `json:"attribute_type_id"`
		OriginalAttributeName  string          `json:"original_attribute_name,omitempty"`
		Value                  json.RawMessage `json:"value"`
		ValueTypeID            string          `json:"value_type_id,omitempty"`
		AttributeSource        string          `json:"attribute_source,omitempty"`
		ValueURL               string          `json:"value_url,omitempty"`
		Description            string          `json:"description,omitempty"`
		Attributes             []Attribute     `json:"attributes,omitempty"`
	}

	// AttributeConstraint restricts which edges a template's response may contribute, evaluated
	// locally after the upstream response returns (see internal/constraint).
	AttributeConstraint struct {
		ID       CURIE  `json:"id"`
		Name     string `json:"name"`
		Not      bool   `json:"not"`
		Operator string `json:"operator"`
		Value    json.RawMessage `json:"value"`
		UnitID   string `json:"unit_id,omitempty"`
		UnitName string `json:"unit_name,omitempty"`
	}

	// RetrievalSource records provenance for an edge, including which source is primary.
	RetrievalSource struct {
		ResourceID   string   `json:"resource_id"`
		ResourceRole string   `json:"resource_role"`
		UpstreamResourceIDs []string `json:"upstream_resource_ids,omitempty"`
	}

	// QNode is a node in a query graph.
	QNode struct {
		IDs         []CURIE               `json:"ids,omitempty"`
		Categories  []string               `json:"categories,omitempty"`
		IsSet       bool                   `json:"is_set,omitempty"`
		Constraints []AttributeConstraint  `json:"constraints,omitempty"`
	}

	// QEdge is an edge in a query graph.
	QEdge struct {
		KnowledgeType        string                 `json:"knowledge_type,omitempty"`
		Predicates           []string               `json:"predicates,omitempty"`
		Subject              string                 `json:"subject"`
		Object               string                 `json:"object"`
		AttributeConstraints []AttributeConstraint  `json:"attribute_constraints,omitempty"`
	}

	// QueryGraph is the caller's query shape: a small node/edge graph naming the pattern to match.
	QueryGraph struct {
		Nodes map[string]QNode `json:"nodes"`
		Edges map[string]QEdge `json:"edges"`
	}

	// Node is a knowledge-graph node: a concrete biomedical entity.
	Node struct {
		Name       string      `json:"name,omitempty"`
		Categories []string    `json:"categories,omitempty"`
		Attributes []Attribute `json:"attributes,omitempty"`
	}

	// Edge is a knowledge-graph edge: a concrete, provenanced assertion between two entities.
	Edge struct {
		Predicate  string            `json:"predicate,omitempty"`
		Subject    CURIE             `json:"subject"`
		Object     CURIE             `json:"object"`
		Sources    []RetrievalSource `json:"sources,omitempty"`
		Attributes []Attribute       `json:"attributes,omitempty"`
	}

	// KnowledgeGraph is the merged pool of concrete nodes/edges backing every result.
	KnowledgeGraph struct {
		Nodes map[string]Node `json:"nodes"`
		Edges map[string]Edge `json:"edges"`
	}

	// NodeBinding ties a query-graph node id to a concrete knowledge-graph node id.
	NodeBinding struct {
		ID      CURIE  `json:"id"`
		QueryID string `json:"query_id,omitempty"`
	}

	// EdgeBinding ties a query-graph edge id to a concrete knowledge-graph edge id.
	EdgeBinding struct {
		ID string `json:"id"`
	}

	// Analysis bundles the edges that justify a result under one scoring method, with a score.
	Analysis struct {
		ResourceID     string                   `json:"resource_id"`
		Score          *float64                 `json:"score"`
		ScoringMethod  string                   `json:"scoring_method,omitempty"`
		EdgeBindings   map[string][]EdgeBinding `json:"edge_bindings"`
	}

	// Result is one answer to the query: node bindings plus one or more scored analyses.
	Result struct {
		NodeBindings map[string][]NodeBinding `json:"node_bindings"`
		Analyses     []Analysis               `json:"analyses"`
	}

	// Message is the TRAPI payload: the query shape, the pool of concrete knowledge, the answers,
	// and the auxiliary graphs referenced by synthesized edges' support_graphs attributes.
	Message struct {
		QueryGraph      *QueryGraph         `json:"query_graph,omitempty"`
		KnowledgeGraph  *KnowledgeGraph     `json:"knowledge_graph,omitempty"`
		Results         []Result            `json:"results"`
		AuxiliaryGraphs map[string]AuxGraph `json:"auxiliary_graphs,omitempty"`
	}

	// AuxGraph is a named bundle of edge ids, referenced by a synthesized edge's support_graphs.
	AuxGraph struct {
		Edges []string `json:"edges"`
	}

	// LogEntry is a structured log line surfaced to the caller in a Response.
	LogEntry struct {
		Timestamp string `json:"timestamp,omitempty"`
		Level     string `json:"level,omitempty"`
		Code      string `json:"code,omitempty"`
		Message   string `json:"message,omitempty"`
	}

	// Workflow describes a post-processing operation requested alongside a query; CQS only ever
	// echoes this back unchanged.
	Workflow struct {
		ID               string                 `json:"id"`
		Parameters       map[string]interface{} `json:"parameters,omitempty"`
		RunnerParameters map[string]interface{} `json:"runner_parameters,omitempty"`
	}

	// Query is the inbound request body for POST /query.
	Query struct {
		Message   Message    `json:"message"`
		LogLevel  string     `json:"log_level,omitempty"`
		Logs      []LogEntry `json:"logs,omitempty"`
		Workflow  []Workflow `json:"workflow,omitempty"`
		Submitter string     `json:"submitter,omitempty"`
	}

	// AsyncQuery is the inbound request body for POST /asyncquery: a Query plus a callback URL.
	AsyncQuery struct {
		Query
		Callback string `json:"callback"`
	}

	// Response is the outbound body for both /query and /download/{id}.
	Response struct {
		Message       Message    `json:"message"`
		Status        string     `json:"status,omitempty"`
		Description   string     `json:"description,omitempty"`
		Logs          []LogEntry `json:"logs,omitempty"`
		Workflow      []Workflow `json:"workflow,omitempty"`
		SchemaVersion string     `json:"schema_version,omitempty"`
		BiolinkVersion string    `json:"biolink_version,omitempty"`
	}
)

// Status values used on Response.Status.
const (
	StatusSuccess = "Success"
	StatusQueryNotTraversable = "QueryNotTraversable"
)

// Well-known attribute type ids and values used by the Result Rewriter.
const (
	AttrSupportGraphs  = "biolink:support_graphs"
	AttrAgentType      = "biolink:agent_type"
	AttrKnowledgeLevel = "biolink:knowledge_level"

	AgentTypeComputationalModel = "computational_model"
	KnowledgeLevelPrediction    = "prediction"

	InforesCQS = "infores:cqs"

	PredicateTreats = "biolink:treats"
	KnowledgeTypeInferred = "inferred"

	ResourceRolePrimaryKnowledgeSource = "primary_knowledge_source"
)

// EmptyMessage returns a Message with initialized, empty collections — the shape synthesized for
// an unhandled query shape (spec §4.8 step 2) and the merge base case (R1).
func EmptyMessage() Message {
	return Message{
		Results: []Result{},
		KnowledgeGraph: &KnowledgeGraph{
			Nodes: map[string]Node{},
			Edges: map[string]Edge{},
		},
	}
}
