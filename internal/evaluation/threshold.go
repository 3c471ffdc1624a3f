package evaluation

import (
	"math"
)

// SelectBestThreshold returns the threshold with the highest F-score after
// rounding to two decimals. Ties go to the largest threshold. The second
// result is false when every F-score is undefined.
func SelectBestThreshold(metrics []ThresholdMetric) (int, bool) {
	best := math.Inf(-1)
	threshold := 0
	found := false

	for _, metric := range metrics {
		if math.IsNaN(metric.FScore) {
			continue
		}
		score := roundTo(metric.FScore, 2)
		if score > best || (score == best && metric.Threshold > threshold) {
			best = score
			threshold = metric.Threshold
			found = true
		}
	}

	return threshold, found
}

// BestMetric returns the curve point SelectBestThreshold picks.
func BestMetric(metrics []ThresholdMetric) (ThresholdMetric, bool) {
	threshold, ok := SelectBestThreshold(metrics)
	if !ok {
		return ThresholdMetric{}, false
	}
	for _, metric := range metrics {
		if metric.Threshold == threshold {
			return metric, true
		}
	}
	return ThresholdMetric{}, false
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
