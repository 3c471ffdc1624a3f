package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTaskMethods(t *testing.T) {
	t.Parallel()

	withMethod := func(m TaskMethod) []GroundTruthEvent {
		ev := gt(1, 11, "A")
		ev.TaskMethod = m
		return []GroundTruthEvent{gt(2, 21, "A"), ev}
	}

	tests := []struct {
		name    string
		method  TaskMethod
		res     Resolution
		wantErr bool
	}{
		{"per task at recording", MethodPerTask, ResolutionRecording, false},
		{"per task at task", MethodPerTask, ResolutionTask, false},
		{"per task at minute", MethodPerTask, ResolutionMinute, true},
		{"per minute at minute", MethodPerMinute, ResolutionMinute, false},
		{"none at recording", MethodNone, ResolutionRecording, true},
		{"none at task", MethodNone, ResolutionTask, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			main := withMethod(tt.method)
			if tt.res == ResolutionMinute {
				main[0].TaskMethod = MethodPerMinute
			}

			err := CheckTaskMethods(main, tt.res)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMethodIncompatible)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckTaskMethods_EveryTask(t *testing.T) {
	t.Parallel()

	perMinute := gt(1, 11, "A")
	perMinute.TaskMethod = MethodPerMinute
	perTask := gt(1, 12, "B")
	none := gt(1, 13, "C")
	none.TaskMethod = "none"

	err := CheckTaskMethods([]GroundTruthEvent{perMinute, perTask}, ResolutionMinute)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMethodIncompatible)

	err = CheckTaskMethods([]GroundTruthEvent{perMinute, none}, ResolutionRecording)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMethodIncompatible)

	lower := perMinute
	lower.TaskID = 14
	lower.TaskMethod = "1spm"
	assert.NoError(t, CheckTaskMethods([]GroundTruthEvent{perMinute, lower}, ResolutionMinute))
}

func TestNormalizeGroundTruth_FiltersAndDeduplicates(t *testing.T) {
	t.Parallel()

	mammal := gt(1, 11, "RSQU")
	mammal.Category = CategoryMammal
	noise := gt(1, 11, "")
	noise.Category = CategoryBird

	main := []GroundTruthEvent{
		gt(1, 11, "A"),
		gt(1, 11, "A"),
		gt(1, 12, "A"),
		gt(2, 21, "B"),
		mammal,
		noise,
	}

	keys := NormalizeGroundTruth(main, ResolutionRecording, nil)
	require.Len(t, keys, 2)
	assert.Equal(t, AggregationKey{ProjectID: 1, LocationID: 1, RecordingID: 1, SpeciesCode: "A"}, keys[0])
	assert.Equal(t, AggregationKey{ProjectID: 1, LocationID: 1, RecordingID: 2, SpeciesCode: "B"}, keys[1])

	// Task resolution keeps both tasks of recording 1.
	assert.Len(t, NormalizeGroundTruth(main, ResolutionTask, nil), 3)

	// An empty exclusion list keeps the mammal.
	assert.Len(t, NormalizeGroundTruth(main, ResolutionRecording, []Category{}), 3)
}

func TestNormalizeGroundTruth_CategoryCaseInsensitive(t *testing.T) {
	t.Parallel()

	ev := gt(1, 11, "HUMAN")
	ev.Category = "Human"

	assert.Empty(t, NormalizeGroundTruth([]GroundTruthEvent{ev}, ResolutionRecording, nil))
}

func TestNormalizeGroundTruth_MinuteResolution(t *testing.T) {
	t.Parallel()

	first := gt(1, 11, "A")
	first.TaskMethod = MethodPerMinute
	second := first
	second.StartOffset = 75

	keys := NormalizeGroundTruth([]GroundTruthEvent{first, second}, ResolutionMinute, nil)
	require.Len(t, keys, 2)
	assert.Equal(t, 1, keys[0].Minute)
	assert.Equal(t, 2, keys[1].Minute)
}
