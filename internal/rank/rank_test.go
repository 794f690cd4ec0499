package rank_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TranslatorSRI/cqs/internal/rank"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

func score(f float64) *float64 { return &f }

func resultWithScore(f float64) trapi.Result {
	return trapi.Result{Analyses: []trapi.Analysis{{Score: score(f)}}}
}

func TestMessage(t *testing.T) {
	t.Run("sorts results by top analysis score descending", func(t *testing.T) {
		msg := &trapi.Message{Results: []trapi.Result{
			resultWithScore(0.1),
			resultWithScore(0.9),
			resultWithScore(0.5),
		}}

		rank.Message(msg, 0)

		assert.InDelta(t, 0.9, *msg.Results[0].Analyses[0].Score, 1e-9)
		assert.InDelta(t, 0.5, *msg.Results[1].Analyses[0].Score, 1e-9)
		assert.InDelta(t, 0.1, *msg.Results[2].Analyses[0].Score, 1e-9)
	})

	t.Run("NaN scores sort last", func(t *testing.T) {
		msg := &trapi.Message{Results: []trapi.Result{
			{Analyses: []trapi.Analysis{{Score: nil}}},
			resultWithScore(0.2),
		}}

		rank.Message(msg, 0)

		assert.NotNil(t, msg.Results[0].Analyses[0].Score)
		assert.Nil(t, msg.Results[1].Analyses[0].Score)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		msg := &trapi.Message{Results: []trapi.Result{
			resultWithScore(0.9), resultWithScore(0.5), resultWithScore(0.1),
		}}

		rank.Message(msg, 2)

		assert.Len(t, msg.Results, 2)
	})

	t.Run("re-ranking an already-ranked message is a no-op", func(t *testing.T) {
		msg := &trapi.Message{Results: []trapi.Result{resultWithScore(0.9), resultWithScore(0.1)}}
		rank.Message(msg, 0)
		before := make([]float64, len(msg.Results))
		for i, r := range msg.Results {
			before[i] = *r.Analyses[0].Score
		}

		rank.Message(msg, 0)

		for i, r := range msg.Results {
			assert.InDelta(t, before[i], *r.Analyses[0].Score, 1e-9)
		}
	})

	t.Run("zero limit means unbounded", func(t *testing.T) {
		msg := &trapi.Message{Results: []trapi.Result{resultWithScore(math.NaN())}}
		rank.Message(msg, 0)
		assert.Len(t, msg.Results, 1)
	})
}
