// Package rank sorts and truncates TRAPI results by score.
package rank

import (
	"math"
	"sort"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

// Message sorts analyses within each result by score descending (NaN last), sorts results by
// their top analysis's score descending (NaN last), then truncates to limit if limit > 0.
//
// Re-running Message on an already-ranked message is a no-op: both sorts are stable and operate
// on an ordering that is already consistent with the comparator.
func Message(msg *trapi.Message, limit int) {
	for i := range msg.Results {
		sortAnalyses(msg.Results[i].Analyses)
	}

	sort.SliceStable(msg.Results, func(i, j int) bool {
		return before(topScore(msg.Results[i]), topScore(msg.Results[j]))
	})

	if limit > 0 && len(msg.Results) > limit {
		msg.Results = msg.Results[:limit]
	}
}

func sortAnalyses(analyses []trapi.Analysis) {
	sort.SliceStable(analyses, func(i, j int) bool {
		return before(scoreOf(analyses[i]), scoreOf(analyses[j]))
	})
}

func scoreOf(a trapi.Analysis) float64 {
	if a.Score == nil {
		return math.NaN()
	}

	return *a.Score
}

func topScore(r trapi.Result) float64 {
	if len(r.Analyses) == 0 {
		return math.NaN()
	}

	return scoreOf(r.Analyses[0])
}

// before reports whether a sorts ahead of b under "descending, NaN last" ordering.
func before(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)

	switch {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}
