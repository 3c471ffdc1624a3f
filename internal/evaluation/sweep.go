package evaluation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// Score scale bounds for classifier confidences.
const (
	MinThreshold = 0
	MaxThreshold = 100
)

// ThresholdRange is an inclusive range of integer score thresholds.
type ThresholdRange struct {
	Lo int
	Hi int
}

// Validate checks the range lies on the classifier score scale.
func (r ThresholdRange) Validate() error {
	if r.Lo < MinThreshold || r.Hi > MaxThreshold || r.Lo > r.Hi {
		return errors.New(fmt.Errorf("%w: invalid threshold range [%d, %d]", ErrInputShape, r.Lo, r.Hi)).
			Component(componentName).
			Category(errors.CategoryValidation).
			Context("threshold_lo", r.Lo).
			Context("threshold_hi", r.Hi).
			Build()
	}
	return nil
}

// Len returns the number of thresholds in the range.
func (r ThresholdRange) Len() int {
	return r.Hi - r.Lo + 1
}

// ThresholdMetric is one point of the precision/recall curve. Undefined
// values are NaN.
type ThresholdMetric struct {
	Threshold int
	Precision float64
	Recall    float64
	FScore    float64
}

// SweepResult is the curve for a range plus any advisory notices.
type SweepResult struct {
	Metrics    []ThresholdMetric
	Advisories []string
}

// Sweep evaluates every threshold in r against the matrix. Thresholds run
// concurrently on up to workers goroutines (GOMAXPROCS when workers <= 0);
// metrics are returned in ascending threshold order.
func Sweep(ctx context.Context, m *ConfusionMatrix, r ThresholdRange, workers int) (*SweepResult, error) {
	if m == nil {
		return nil, inputShapeErrorf("confusion matrix is nil")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	metrics := make([]ThresholdMetric, r.Len())
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range metrics {
		threshold := r.Lo + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			metrics[i] = evaluateThreshold(m, threshold)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryCancellation).
			Timing("threshold_sweep", time.Since(start)).
			Build()
	}

	result := &SweepResult{Metrics: metrics}
	if first, ok := firstUndefinedPrecision(metrics); ok {
		GetLogger().Warn("precision undefined at high thresholds",
			logger.Int("first_threshold", first),
			logger.Int("threshold_hi", r.Hi))
		result.Advisories = append(result.Advisories, fmt.Sprintf(
			"precision is undefined from threshold %d on the %d-%d scale: no detections survive, consider an upper bound below %d",
			first, MinThreshold, MaxThreshold, first))
	}

	return result, nil
}

// evaluateThreshold computes one curve point. Rows without a confidence
// never pass the filter.
func evaluateThreshold(m *ConfusionMatrix, threshold int) ThresholdMetric {
	var tp, fp int
	t := float64(threshold)

	for i := range m.Rows {
		row := &m.Rows[i]
		if !row.HasConfidence || row.Confidence < t {
			continue
		}
		tp += row.TP
		fp += row.FP
	}

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, m.HumanTotal)

	return ThresholdMetric{
		Threshold: threshold,
		Precision: precision,
		Recall:    recall,
		FScore:    fscore(precision, recall),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func fscore(precision, recall float64) float64 {
	if math.IsNaN(precision) || math.IsNaN(recall) || precision+recall == 0 {
		return math.NaN()
	}
	return 2 * precision * recall / (precision + recall)
}

// firstUndefinedPrecision returns the lowest threshold without surviving
// detections. Every higher threshold is undefined as well.
func firstUndefinedPrecision(metrics []ThresholdMetric) (int, bool) {
	for _, metric := range metrics {
		if math.IsNaN(metric.Precision) {
			return metric.Threshold, true
		}
	}
	return 0, false
}
