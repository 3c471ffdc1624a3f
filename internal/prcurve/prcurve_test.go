package prcurve

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

func curve() []evaluation.ThresholdMetric {
	return []evaluation.ThresholdMetric{
		{Threshold: 0, Precision: 0.4, Recall: 1, FScore: 0.57},
		{Threshold: 50, Precision: 0.8, Recall: 0.6, FScore: 0.69},
		{Threshold: 100, Precision: math.NaN(), Recall: 0, FScore: math.NaN()},
	}
}

func TestNew_SkipsUndefinedPoints(t *testing.T) {
	t.Parallel()

	pts := definedPoints(curve(), func(m evaluation.ThresholdMetric) float64 { return m.Precision })
	assert.Len(t, pts, 2)

	p, err := New(curve(), "Recording resolution")
	require.NoError(t, err)
	assert.Equal(t, "Recording resolution", p.Title.Text)
	assert.InDelta(t, 0, p.X.Min, 1e-9)
	assert.InDelta(t, 100, p.X.Max, 1e-9)
}

func TestNew_AllUndefined(t *testing.T) {
	t.Parallel()

	_, err := New([]evaluation.ThresholdMetric{
		{Threshold: 90, Precision: math.NaN(), Recall: 0, FScore: math.NaN()},
	}, "")
	require.NoError(t, err)
}

func TestSave_PNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plots", "curve.png")
	require.NoError(t, Save(path, curve(), Options{Title: "test"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "expected a PNG image")
}

func TestSave_NoPath(t *testing.T) {
	t.Parallel()

	err := Save("", curve(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
