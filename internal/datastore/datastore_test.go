package datastore

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

func sampleEvaluation() *evaluation.Evaluation {
	return &evaluation.Evaluation{
		Resolution: evaluation.ResolutionRecording,
		Range:      evaluation.ThresholdRange{Lo: 40, Hi: 42},
		Metrics: []evaluation.ThresholdMetric{
			{Threshold: 40, Precision: 0.5, Recall: 1, FScore: 2.0 / 3.0},
			{Threshold: 41, Precision: 1, Recall: 0.5, FScore: 2.0 / 3.0},
			{Threshold: 42, Precision: math.NaN(), Recall: 0, FScore: math.NaN()},
		},
		HumanTotal: 2,
		Counts:     evaluation.MatrixCounts{TP: 2, FP: 1, FN: 0},
		Duration:   15 * time.Millisecond,
	}
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite = conf.SQLiteSettings{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "runs", "eval.db"),
	}

	store, ok := New(settings).(*SQLiteStore)
	require.True(t, ok, "sqlite output should select SQLiteStore")
	require.NoError(t, store.Open())
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	assert.Nil(t, New(settings))

	settings.Output.MySQL.Enabled = true
	assert.IsType(t, &MySQLStore{}, New(settings))
}

func TestNewEvaluationRun(t *testing.T) {
	t.Parallel()

	run := NewEvaluationRun(sampleEvaluation(), Sources{Main: "main.csv", Classifier: "cls.csv"})

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunKindEvaluation, run.Kind)
	assert.Equal(t, "recording", run.Resolution)
	require.NotNil(t, run.BestThreshold)
	assert.Equal(t, 41, *run.BestThreshold, "ties on rounded F-score pick the larger threshold")
	require.NotNil(t, run.BestFScore)
	assert.InDelta(t, 2.0/3.0, *run.BestFScore, 1e-9)

	require.Len(t, run.Metrics, 3)
	assert.Nil(t, run.Metrics[2].Precision)
	assert.Nil(t, run.Metrics[2].FScore)
	require.NotNil(t, run.Metrics[2].Recall)
	assert.Zero(t, *run.Metrics[2].Recall)
	for _, m := range run.Metrics {
		assert.Equal(t, run.ID, m.RunID)
	}
}

func TestNewNovelRun(t *testing.T) {
	t.Parallel()

	result := &evaluation.NovelResult{
		Records: []evaluation.NovelRecord{
			{DetectionEvent: evaluation.DetectionEvent{ProjectID: 1, LocationID: 2, RecordingID: 3, SpeciesCode: "OVEN", Confidence: 91}},
		},
	}
	opts := evaluation.NovelOptions{Resolution: evaluation.ResolutionLocation, Threshold: 80}

	run := NewNovelRun(result, opts, Sources{}, time.Second)

	assert.Equal(t, RunKindNovel, run.Kind)
	assert.Equal(t, "location", run.Resolution)
	assert.Equal(t, 1, run.NovelCount)
	assert.Zero(t, run.TagsExported)
	require.Len(t, run.Novel, 1)
	assert.Equal(t, "OVEN", run.Novel[0].SpeciesCode)
	assert.Nil(t, run.BestThreshold)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)
	run := NewEvaluationRun(sampleEvaluation(), Sources{Main: "main.csv"})
	require.NoError(t, store.SaveRun(run))

	var metricCount int64
	require.NoError(t, store.DB.Model(&RunMetric{}).Count(&metricCount).Error)
	assert.Equal(t, int64(3), metricCount)

	loaded, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "main.csv", loaded.MainReport)
	assert.Equal(t, 2, loaded.TP)
	require.NotNil(t, loaded.BestThreshold)
	assert.Equal(t, 41, *loaded.BestThreshold)

	curve := loaded.Curve()
	require.Len(t, curve, 3)
	assert.Equal(t, 40, curve[0].Threshold)
	assert.True(t, math.IsNaN(curve[2].Precision))
	assert.InDelta(t, 0.5, curve[0].Precision, 1e-9)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)

	older := NewEvaluationRun(sampleEvaluation(), Sources{})
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := NewNovelRun(&evaluation.NovelResult{}, evaluation.NovelOptions{Resolution: evaluation.ResolutionProject}, Sources{}, 0)
	require.NoError(t, store.SaveRun(older))
	require.NoError(t, store.SaveRun(newer))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Empty(t, runs[1].Metrics, "list does not preload curves")

	runs, err = store.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, store.DeleteRun(older.ID))

	var metricCount int64
	require.NoError(t, store.DB.Model(&RunMetric{}).Count(&metricCount).Error)
	assert.Zero(t, metricCount)

	err = store.DeleteRun(older.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = store.GetRun(older.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestDataStore_NotOpened(t *testing.T) {
	t.Parallel()

	ds := &DataStore{}
	require.Error(t, ds.SaveRun(&EvaluationRun{ID: "x"}))
	_, err := ds.ListRuns(1)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestSaveRun_RequiresID(t *testing.T) {
	t.Parallel()

	store := openSQLite(t)
	err := store.SaveRun(&EvaluationRun{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn := mysqlDSN(&conf.MySQLSettings{
		Username: "birdnet",
		Password: "secret",
		Database: "eval",
		Host:     "db.local",
		Port:     3307,
	})

	assert.Contains(t, dsn, "birdnet:secret@tcp(db.local:3307)/eval")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMySQLStore_OpenRequiresHost(t *testing.T) {
	t.Parallel()

	store := &MySQLStore{Settings: &conf.Settings{}}
	err := store.Open()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
