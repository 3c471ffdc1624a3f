package evaluation

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-eval/internal/errors"
)

func metricAt(t *testing.T, metrics []ThresholdMetric, threshold int) ThresholdMetric {
	t.Helper()
	for _, m := range metrics {
		if m.Threshold == threshold {
			return m
		}
	}
	t.Fatalf("threshold %d missing from curve", threshold)
	return ThresholdMetric{}
}

func TestSweep_ScenarioA(t *testing.T) {
	t.Parallel()

	m := buildScenarioAMatrix(t)

	result, err := Sweep(context.Background(), m, ThresholdRange{Lo: 0, Hi: 100}, 4)
	require.NoError(t, err)
	require.Len(t, result.Metrics, 101)

	at50 := metricAt(t, result.Metrics, 50)
	assert.InDelta(t, 0.5, at50.Precision, 1e-9)
	assert.InDelta(t, 0.5, at50.Recall, 1e-9)
	assert.InDelta(t, 0.5, at50.FScore, 1e-9)

	at90 := metricAt(t, result.Metrics, 90)
	assert.InDelta(t, 0.0, at90.Precision, 1e-9)
	assert.InDelta(t, 0.0, at90.Recall, 1e-9)
	assert.True(t, math.IsNaN(at90.FScore), "fscore at 90 should be undefined")

	at91 := metricAt(t, result.Metrics, 91)
	assert.True(t, math.IsNaN(at91.Precision), "precision at 91 should be undefined")
	assert.InDelta(t, 0.0, at91.Recall, 1e-9)
	assert.True(t, math.IsNaN(at91.FScore), "fscore at 91 should be undefined")
}

func TestSweep_OrderedAndMonotonicRecall(t *testing.T) {
	t.Parallel()

	m := buildScenarioAMatrix(t)

	result, err := Sweep(context.Background(), m, ThresholdRange{Lo: 10, Hi: 95}, 0)
	require.NoError(t, err)

	for i, metric := range result.Metrics {
		assert.Equal(t, 10+i, metric.Threshold)
		if i == 0 {
			continue
		}
		assert.LessOrEqual(t, metric.Recall, result.Metrics[i-1].Recall,
			"recall increased from %d to %d", metric.Threshold-1, metric.Threshold)
	}
}

func TestSweep_AdvisoryOncePerCall(t *testing.T) {
	t.Parallel()

	m := buildScenarioAMatrix(t)

	result, err := Sweep(context.Background(), m, ThresholdRange{Lo: 85, Hi: 100}, 2)
	require.NoError(t, err)
	require.Len(t, result.Advisories, 1)
	assert.Contains(t, result.Advisories[0], "91")
	assert.Contains(t, result.Advisories[0], "0-100 scale")

	result, err = Sweep(context.Background(), m, ThresholdRange{Lo: 0, Hi: 50}, 2)
	require.NoError(t, err)
	assert.Empty(t, result.Advisories)
}

func TestSweep_InvalidRange(t *testing.T) {
	t.Parallel()

	m := buildScenarioAMatrix(t)

	for _, r := range []ThresholdRange{{Lo: -1, Hi: 10}, {Lo: 0, Hi: 101}, {Lo: 60, Hi: 50}} {
		_, err := Sweep(context.Background(), m, r, 1)
		require.Error(t, err, "range %+v", r)
		assert.ErrorIs(t, err, ErrInputShape)
	}
}

func TestSweep_CanceledContext(t *testing.T) {
	t.Parallel()

	m := buildScenarioAMatrix(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, m, ThresholdRange{Lo: 0, Hi: 100}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "threshold_sweep", ee.GetContext()["operation"])
	assert.Contains(t, ee.GetContext(), "duration_ms")
}

func TestSweep_NoGroundTruth(t *testing.T) {
	t.Parallel()

	m := BuildConfusionMatrix([]AggregatedDetection{
		{Key: AggregationKey{RecordingID: 1, SpeciesCode: "A"}, Confidence: 50},
	}, nil, nil)

	result, err := Sweep(context.Background(), m, ThresholdRange{Lo: 0, Hi: 10}, 1)
	require.NoError(t, err)

	for _, metric := range result.Metrics {
		assert.InDelta(t, 0.0, metric.Precision, 1e-9)
		assert.True(t, math.IsNaN(metric.Recall))
		assert.True(t, math.IsNaN(metric.FScore))
	}
}
