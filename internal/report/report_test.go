package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

const mainCSV = `project_id,location_id,recording_id,task_id,species_code,species_class,task_duration,task_method,detection_time,location,recording_date_time,observer
10,20,30,40,OVEN,bird,180,1SPT,12.5,ABC-1,2024-05-01 05:30:00,jdoe
10,20,30,40,RSQU,mammal,180,1SPT,0,ABC-1,2024-05-01 05:30:00,jdoe

10,20,31,41,BTNW,bird,180,1SPM,61,ABC-1,2024-05-02 05:30:00,jdoe
`

const classifierCSV = `Species_Code,Confidence,Project_ID,Location_ID,Recording_ID,start_s,is_species_allowed_in_project,location,recording_date_time,tag_duration,version
OVEN,87.5,10,20,30,12,TRUE,ABC-1,2024-05-01T05:30:00Z,3,2.4
BTNW,40,10,20,31,60,no,ABC-1,2024-05-02 05:30:00,,2.4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadMain(t *testing.T) {
	t.Parallel()

	events, err := ReadMain(strings.NewReader(mainCSV))
	require.NoError(t, err)
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, int64(10), first.ProjectID)
	assert.Equal(t, int64(40), first.TaskID)
	assert.Equal(t, "OVEN", first.SpeciesCode)
	assert.Equal(t, evaluation.CategoryBird, first.Category)
	assert.InDelta(t, 180, first.TaskDuration, 1e-9)
	assert.Equal(t, evaluation.MethodPerTask, first.TaskMethod)
	assert.InDelta(t, 12.5, first.StartOffset, 1e-9)
	assert.True(t, time.Date(2024, 5, 1, 5, 30, 0, 0, time.UTC).Equal(first.RecordingDateTime))
	assert.Equal(t, "jdoe", first.Observer)

	assert.Equal(t, evaluation.MethodPerMinute, events[2].TaskMethod)
}

func TestReadClassifier_HeaderOrderAndCase(t *testing.T) {
	t.Parallel()

	events, err := ReadClassifier(strings.NewReader(classifierCSV))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "OVEN", events[0].SpeciesCode)
	assert.InDelta(t, 87.5, events[0].Confidence, 1e-9)
	assert.True(t, events[0].IsSpeciesAllowedInProject)
	assert.InDelta(t, 3, events[0].TagDuration, 1e-9)
	assert.Equal(t, "2.4", events[0].Version)

	assert.False(t, events[1].IsSpeciesAllowedInProject)
	assert.Zero(t, events[1].TagDuration)
	assert.Zero(t, events[1].TaskID)
}

func TestReadClassifier_MissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ReadClassifier(strings.NewReader("species_code,project_id\nOVEN,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence")
	assert.Contains(t, err.Error(), "recording_id")
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestReadClassifier_BadValue(t *testing.T) {
	t.Parallel()

	csv := "species_code,confidence,project_id,location_id,recording_id\nOVEN,high,1,2,3\n"
	_, err := ReadClassifier(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "confidence")
}

func TestReadClassifier_RejectsInvalidConfidence(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"NaN", "Inf", "-1", "100.5"} {
		t.Run(value, func(t *testing.T) {
			t.Parallel()

			csv := "species_code,confidence,project_id,location_id,recording_id\nOVEN," + value + ",1,2,3\n"
			_, err := ReadClassifier(strings.NewReader(csv))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
			assert.Contains(t, err.Error(), "confidence")
		})
	}
}

func TestReadMain_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadMain(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoader_CachesUntilFileChanges(t *testing.T) {
	t.Parallel()

	mainPath := writeFile(t, "main.csv", mainCSV)
	classifierPath := writeFile(t, "classifier.csv", classifierCSV)

	loader := NewLoader(time.Minute)

	reports, err := loader.Load(mainPath, classifierPath)
	require.NoError(t, err)
	assert.Len(t, reports.Main, 3)
	assert.Len(t, reports.Classifier, 2)

	_, err = loader.Load(mainPath, classifierPath)
	require.NoError(t, err)

	hits, misses := loader.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)

	// Rewriting the file with different content invalidates the entry.
	trimmed := strings.Join(strings.Split(classifierCSV, "\n")[:2], "\n") + "\n"
	require.NoError(t, os.WriteFile(classifierPath, []byte(trimmed), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(classifierPath, later, later))

	events, err := loader.LoadClassifier(classifierPath)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, misses = loader.Stats()
	assert.Equal(t, int64(3), misses)
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	loader := NewLoader(0)

	_, err := loader.LoadMain("")
	require.Error(t, err)

	_, err = loader.LoadMain(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
