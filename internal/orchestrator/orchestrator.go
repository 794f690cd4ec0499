// Package orchestrator runs the full one-hop query pipeline: shape detection, per-template
// fan-out, rewriting, merging, and ranking.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TranslatorSRI/cqs/internal/merge"
	"github.com/TranslatorSRI/cqs/internal/rank"
	"github.com/TranslatorSRI/cqs/internal/rewrite"
	"github.com/TranslatorSRI/cqs/internal/template"
	"github.com/TranslatorSRI/cqs/internal/trapi"
	"github.com/TranslatorSRI/cqs/internal/upstream"
)

// Config carries the two values the orchestrator needs to stamp onto every response, read once at
// startup (spec §4.8 step 5), plus debug snapshotting.
type Config struct {
	SchemaVersion  string
	BiolinkVersion string
	ResultsLimit   int // global post-merge truncation; 0 means unbounded

	// DebugOutputDir, when set, makes every branch write its raw upstream response and its
	// post-rewrite message to this directory for offline inspection (WFR_OUTPUT_DIR, from
	// original_source/util.rs). Empty disables snapshotting entirely.
	DebugOutputDir string
}

// Registry is the subset of *template.Registry the orchestrator depends on, so tests can supply a
// fixed template set without loading a manifest from disk.
type Registry interface {
	Templates() []template.Template
}

// Orchestrator ties together the template registry, the upstream client, and the rewrite/merge/
// rank pipeline (C1, C3-C7) behind a single Run call.
type Orchestrator struct {
	registry Registry
	client   *upstream.Client
	config   Config
}

// New builds an Orchestrator over a loaded template registry and upstream client.
func New(registry Registry, client *upstream.Client, config Config) *Orchestrator {
	return &Orchestrator{registry: registry, client: client, config: config}
}

// Run executes the full pipeline against one inbound query (spec §4.8). It never returns an
// error for a malformed or unhandled query shape — those produce an empty-success response, the
// same as the teacher's convention of returning typed "nothing happened" results rather than
// treating an expected, named case as an error.
func (o *Orchestrator) Run(ctx context.Context, query trapi.Query) trapi.Response {
	response, _ := o.RunWithContributionCount(ctx, query)

	return response
}

// RunWithContributionCount runs the same pipeline as Run, additionally reporting how many
// templates contributed a branch. The Async Job Processor (C10) needs this count to tell "no
// template produced anything" (spec §4.10: a job fails in this case, even though the response
// itself is still a well-formed empty-success message) apart from "every branch legitimately
// returned zero results".
func (o *Orchestrator) RunWithContributionCount(ctx context.Context, query trapi.Query) (trapi.Response, int) {
	treats, err := trapi.FindTreatsEdge(query.Message.QueryGraph)
	if err != nil {
		slog.Info("query does not match the one-hop inferred-treats shape", slog.String("error", err.Error()))

		return o.emptySuccess(query), 0
	}

	contributions := o.fanOut(ctx, treats)

	merged := cloneRequestMessage(query.Message)
	for _, c := range contributions {
		merge.Into(&merged, c)
	}

	rank.Message(&merged, o.config.ResultsLimit)

	response := trapi.Response{
		Message:        merged,
		Status:         trapi.StatusSuccess,
		Workflow:       query.Workflow,
		SchemaVersion:  o.config.SchemaVersion,
		BiolinkVersion: o.config.BiolinkVersion,
	}

	return response, len(contributions)
}

// fanOut renders, POSTs, and rewrites every registered template concurrently, returning the
// contribution of every branch that produced one. A branch that errors or returns no upstream
// response is logged and simply contributes nothing (spec §4.8: "the orchestrator never fails
// unless the request itself is malformed").
func (o *Orchestrator) fanOut(ctx context.Context, treats trapi.TreatsEdge) []trapi.Message {
	templates := o.registry.Templates()
	contributions := make([]trapi.Message, len(templates))

	g, gctx := errgroup.WithContext(ctx)

	for i, tpl := range templates {
		g.Go(func() error {
			msg, ok := o.runBranch(gctx, tpl, treats)
			if ok {
				contributions[i] = msg
			}

			return nil
		})
	}

	_ = g.Wait() // branch errors are handled and logged inside runBranch; Wait never returns one

	out := make([]trapi.Message, 0, len(contributions))

	for _, c := range contributions {
		if c.Results != nil {
			out = append(out, c)
		}
	}

	return out
}

func (o *Orchestrator) runBranch(ctx context.Context, tpl template.Template, treats trapi.TreatsEdge) (trapi.Message, bool) {
	rendered, constraint := tpl.Render(treats.ObjectCuries)

	resp, err := o.client.PostTemplate(ctx, rendered)
	if err != nil {
		slog.Warn("template branch errored", slog.String("template", tpl.Name), slog.String("error", err.Error()))

		return trapi.Message{}, false
	}

	if resp == nil {
		slog.Info("template branch produced no response", slog.String("template", tpl.Name))

		return trapi.Message{}, false
	}

	msg := rewrite.Rewrite(rewrite.Input{
		Response:        *resp,
		Template:        tpl,
		Constraint:      constraint,
		CallerSubjectID: treats.SubjectID,
		CallerObjectID:  treats.ObjectID,
		CallerEdgeID:    treats.EdgeID,
	})

	o.snapshot(tpl.Name, resp, msg)

	return msg, true
}

// emptySuccess synthesizes the rejection response for an unhandled query shape (spec §4.8 step 2).
func (o *Orchestrator) emptySuccess(query trapi.Query) trapi.Response {
	return trapi.Response{
		Message:        trapi.EmptyMessage(),
		Status:         trapi.StatusSuccess,
		Workflow:       query.Workflow,
		SchemaVersion:  o.config.SchemaVersion,
		BiolinkVersion: o.config.BiolinkVersion,
	}
}

// snapshot writes a branch's raw upstream response and post-rewrite message to DebugOutputDir for
// offline inspection. No-op when DebugOutputDir is unset. Best-effort: a write failure is logged
// and ignored, never affecting the pipeline.
func (o *Orchestrator) snapshot(templateName string, raw *trapi.Response, rewritten trapi.Message) {
	if o.config.DebugOutputDir == "" {
		return
	}

	base := filepath.Join(o.config.DebugOutputDir, fmt.Sprintf("%s-%s", templateName, time.Now().UTC().Format("20060102T150405.000000000")))

	writeDebugSnapshot(base+".raw.json", raw)
	writeDebugSnapshot(base+".rewritten.json", rewritten)
}

func writeDebugSnapshot(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Warn("orchestrator: failed to marshal debug snapshot", slog.String("path", path), slog.String("error", err.Error()))

		return
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Warn("orchestrator: failed to write debug snapshot", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// cloneRequestMessage starts the merge accumulator from a copy of the request's own message, per
// spec §4.8 step 4 ("merge all returned messages into a copy of the request's message"): its query
// graph, knowledge graph and auxiliary graphs are carried over, and results start out empty.
func cloneRequestMessage(req trapi.Message) trapi.Message {
	msg := trapi.EmptyMessage()
	msg.QueryGraph = req.QueryGraph

	if req.KnowledgeGraph != nil {
		for id, node := range req.KnowledgeGraph.Nodes {
			msg.KnowledgeGraph.Nodes[id] = node
		}

		for id, edge := range req.KnowledgeGraph.Edges {
			msg.KnowledgeGraph.Edges[id] = edge
		}
	}

	if len(req.AuxiliaryGraphs) > 0 {
		msg.AuxiliaryGraphs = make(map[string]trapi.AuxGraph, len(req.AuxiliaryGraphs))
		for id, aux := range req.AuxiliaryGraphs {
			msg.AuxiliaryGraphs[id] = aux
		}
	}

	return msg
}
