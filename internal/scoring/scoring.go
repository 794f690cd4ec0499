// Package scoring computes the composite score CQS attaches to each synthesized result.
package scoring

import "math"

// fallbackWeightedMean is substituted for the weighted mean when total sample size is zero
// (0/0), before the bounding arctan is applied. Never change this ordering: mapping NaN to 0.01
// after the arctan step produces a different, wrong number.
const fallbackWeightedMean = 0.01

// Observation is one (log-odds-ratio, sample-size) pair contributing to a composite score.
type Observation struct {
	LogOddsRatio    float64
	TotalSampleSize int64
}

// Composite computes the sample-size-weighted mean of the given observations' log-odds-ratios,
// then squashes it to the open interval (-1, 1) via arctan(s)*2/pi.
//
// If the sum of sample sizes is zero the weighted mean is 0/0 == NaN; it is replaced by 0.01
// before the arctan step, per the fallback above. Composite always returns a finite number.
func Composite(observations []Observation) float64 {
	var totalSampleSize int64

	for _, obs := range observations {
		totalSampleSize += obs.TotalSampleSize
	}

	s := weightedMean(observations, totalSampleSize)
	if math.IsNaN(s) {
		s = fallbackWeightedMean
	}

	return math.Atan(s) * 2 / math.Pi
}

func weightedMean(observations []Observation, totalSampleSize int64) float64 {
	var numerator, denominator float64

	for _, obs := range observations {
		weight := float64(obs.TotalSampleSize) / float64(totalSampleSize)
		numerator += weight * obs.LogOddsRatio
		denominator += weight
	}

	return numerator / denominator
}
