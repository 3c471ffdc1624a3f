package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start float64
		want  int
	}{
		{0, 1},
		{0.5, 1},
		{60, 1},
		{60.1, 2},
		{119, 2},
		{121, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MinuteIndex(tt.start), "start %v", tt.start)
	}
}

func TestAggregateDetections_KeepsMaximum(t *testing.T) {
	t.Parallel()

	events := []DetectionEvent{
		det(1, "A", 40, 0),
		det(1, "A", 75, 30),
		det(1, "A", 60, 90),
		det(1, "B", 20, 0),
	}

	got, err := AggregateDetections(events, ResolutionRecording, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].Key.SpeciesCode)
	assert.InDelta(t, 75, got[0].Confidence, 1e-9)
	assert.Equal(t, "B", got[1].Key.SpeciesCode)
	assert.InDelta(t, 20, got[1].Confidence, 1e-9)
}

func TestAggregateDetections_Idempotent(t *testing.T) {
	t.Parallel()

	events := []DetectionEvent{
		det(1, "A", 40, 0),
		det(1, "A", 75, 30),
		det(2, "C", 55, 61),
	}
	doubled := append(append([]DetectionEvent{}, events...), events...)

	for _, res := range []Resolution{ResolutionRecording, ResolutionMinute, ResolutionLocation, ResolutionProject} {
		once, err := AggregateDetections(events, res, nil)
		require.NoError(t, err)
		twice, err := AggregateDetections(doubled, res, nil)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "resolution %s", res)
	}
}

func TestAggregateDetections_MinuteKeys(t *testing.T) {
	t.Parallel()

	events := []DetectionEvent{
		det(1, "A", 40, 0),
		det(1, "A", 50, 59),
		det(1, "A", 70, 61),
	}

	got, err := AggregateDetections(events, ResolutionMinute, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Key.Minute)
	assert.InDelta(t, 50, got[0].Confidence, 1e-9)
	assert.Equal(t, 2, got[1].Key.Minute)
	assert.InDelta(t, 70, got[1].Confidence, 1e-9)
}

func TestAggregateDetections_TaskResolution(t *testing.T) {
	t.Parallel()

	main := []GroundTruthEvent{gt(1, 11, "A")}
	main[0].TaskDuration = 60
	tasks := NewTaskIndex(main)

	events := []DetectionEvent{
		det(1, "A", 40, 10),
		det(1, "A", 95, 61), // past the end of the task
		det(2, "A", 99, 0),  // recording without a task
	}

	got, err := AggregateDetections(events, ResolutionTask, tasks)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, int64(11), got[0].Key.TaskID)
	assert.InDelta(t, 40, got[0].Confidence, 1e-9)
}

func TestAggregateDetections_ExplicitTaskID(t *testing.T) {
	t.Parallel()

	main := []GroundTruthEvent{gt(1, 11, "A"), gt(1, 12, "A")}
	tasks := NewTaskIndex(main)
	require.Equal(t, 2, tasks.Len())

	ev := det(1, "A", 80, 5)
	ev.TaskID = 12

	got, err := AggregateDetections([]DetectionEvent{ev}, ResolutionTask, tasks)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(12), got[0].Key.TaskID)

	// Without a task id the detection is attached to every task of its recording.
	ev.TaskID = 0
	got, err = AggregateDetections([]DetectionEvent{ev}, ResolutionTask, tasks)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAggregateDetections_TaskResolutionNeedsIndex(t *testing.T) {
	t.Parallel()

	_, err := AggregateDetections([]DetectionEvent{det(1, "A", 50, 0)}, ResolutionTask, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestAggregateDetections_RejectsInvalidConfidence(t *testing.T) {
	t.Parallel()

	for _, confidence := range []float64{math.NaN(), math.Inf(1), -5, 101} {
		events := []DetectionEvent{det(1, "A", confidence, 0), det(1, "A", 60, 5)}
		_, err := AggregateDetections(events, ResolutionRecording, nil)
		require.Error(t, err, "confidence %v", confidence)
		assert.ErrorIs(t, err, ErrInputShape)
	}
}
