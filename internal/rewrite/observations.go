package rewrite

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/TranslatorSRI/cqs/internal/scoring"
	"github.com/TranslatorSRI/cqs/internal/trapi"
)

const (
	attrSupportingStudyResult = "biolink:has_supporting_study_result"
	attrLogOddsRatio          = "biolink:log_odds_ratio"
	attrTotalSampleSize       = "biolink:total_sample_size"

	flatLogOddsRatio    = "log_odds_ratio"
	flatTotalSampleSize = "total_sample_size"

	defaultLogOddsRatio  = 0.01
	defaultTotalSampleSize = 0
)

// observationBag collects every ScoreObservation whose underlying edge connects a given
// (subject, object) pair, plus the contributing edge ids (used to build the result's auxiliary
// support graph).
type observationBag struct {
	observations []scoring.Observation
	edgeIDs      []string
}

// buildObservationsByPair extracts exactly one ScoreObservation per knowledge-graph edge — every
// edge contributes, whether or not it carries explicit log-odds/sample-size attributes — and
// groups them by the (subject, object) curie pair they connect.
func buildObservationsByPair(edges map[string]trapi.Edge) map[string]observationBag {
	bags := map[string]observationBag{}

	for edgeID, edge := range edges {
		obs := extractObservation(edge)
		key := pairKey(edge.Subject, edge.Object)

		bag := bags[key]
		bag.observations = append(bag.observations, obs)
		bag.edgeIDs = append(bag.edgeIDs, edgeID)
		bags[key] = bag
	}

	return bags
}

// extractObservation reads log_odds_ratio/total_sample_size off a single edge, preferring the
// nested biolink:has_supporting_study_result form and falling back to the flat,
// original_attribute_name form some providers (e.g. ICEES) emit. An edge with neither form still
// yields a defaulted observation so every edge participates in scoring.
func extractObservation(edge trapi.Edge) scoring.Observation {
	if nested, ok := findAttribute(edge.Attributes, attrSupportingStudyResult); ok {
		logOddsRatio, sampleSize, found := extractNested(nested)
		if found {
			return scoring.Observation{LogOddsRatio: logOddsRatio, TotalSampleSize: sampleSize}
		}
	}

	if logOddsRatio, sampleSize, found := extractFlat(edge.Attributes); found {
		return scoring.Observation{LogOddsRatio: logOddsRatio, TotalSampleSize: sampleSize}
	}

	return scoring.Observation{LogOddsRatio: defaultLogOddsRatio, TotalSampleSize: defaultTotalSampleSize}
}

func extractNested(supportingStudyResult trapi.Attribute) (logOddsRatio float64, totalSampleSize int64, found bool) {
	logOddsRatio = defaultLogOddsRatio
	totalSampleSize = defaultTotalSampleSize

	for _, a := range supportingStudyResult.Attributes {
		switch a.AttributeTypeID {
		case attrLogOddsRatio:
			if v, ok := asFloat(a.Value); ok {
				logOddsRatio = v
				found = true
			}
		case attrTotalSampleSize:
			if v, ok := asFloat(a.Value); ok {
				totalSampleSize = int64(v)
				found = true
			}
		}
	}

	return logOddsRatio, totalSampleSize, found
}

func extractFlat(attributes []trapi.Attribute) (logOddsRatio float64, totalSampleSize int64, found bool) {
	logOddsRatio = defaultLogOddsRatio
	totalSampleSize = defaultTotalSampleSize

	for _, a := range attributes {
		switch a.OriginalAttributeName {
		case flatLogOddsRatio:
			if v, ok := asFloat(a.Value); ok {
				logOddsRatio = v
				found = true
			}
		case flatTotalSampleSize:
			// ICEES reports sample size as a float; truncate towards zero like the original
			// pipeline does.
			if v, ok := asFloat(a.Value); ok {
				totalSampleSize = int64(math.Trunc(v))
				found = true
			}
		}
	}

	return logOddsRatio, totalSampleSize, found
}

func findAttribute(attributes []trapi.Attribute, attributeTypeID string) (trapi.Attribute, bool) {
	for _, a := range attributes {
		if a.AttributeTypeID == attributeTypeID {
			return a, true
		}
	}

	return trapi.Attribute{}, false
}

func asFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}

	return 0, false
}
