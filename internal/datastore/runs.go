package datastore

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

// Sources names the report files a run was computed from.
type Sources struct {
	Main       string
	Classifier string
}

// NewEvaluationRun converts an evaluation into a storable run.
func NewEvaluationRun(eval *evaluation.Evaluation, src Sources) *EvaluationRun {
	run := &EvaluationRun{
		ID:               uuid.New().String(),
		Kind:             RunKindEvaluation,
		CreatedAt:        time.Now(),
		MainReport:       src.Main,
		ClassifierReport: src.Classifier,
		Resolution:       string(eval.Resolution),
		ThresholdLo:      eval.Range.Lo,
		ThresholdHi:      eval.Range.Hi,
		HumanTotal:       eval.HumanTotal,
		TP:               eval.Counts.TP,
		FP:               eval.Counts.FP,
		FN:               eval.Counts.FN,
		Duration:         eval.Duration,
		Metrics:          make([]RunMetric, 0, len(eval.Metrics)),
	}

	if best, ok := eval.Best(); ok {
		threshold := best.Threshold
		run.BestThreshold = &threshold
		run.BestFScore = nullable(best.FScore)
	}

	for _, m := range eval.Metrics {
		run.Metrics = append(run.Metrics, RunMetric{
			RunID:     run.ID,
			Threshold: m.Threshold,
			Precision: nullable(m.Precision),
			Recall:    nullable(m.Recall),
			FScore:    nullable(m.FScore),
		})
	}
	return run
}

// NewNovelRun converts a novel detection result into a storable run.
func NewNovelRun(result *evaluation.NovelResult, opts evaluation.NovelOptions, src Sources, elapsed time.Duration) *EvaluationRun {
	run := &EvaluationRun{
		ID:               uuid.New().String(),
		Kind:             RunKindNovel,
		CreatedAt:        time.Now(),
		MainReport:       src.Main,
		ClassifierReport: src.Classifier,
		Resolution:       string(opts.Resolution),
		NovelThreshold:   opts.Threshold,
		NovelCount:       len(result.Records),
		TagsExported:     len(result.Tags),
		Duration:         elapsed,
		Novel:            make([]NovelDetection, 0, len(result.Records)),
	}

	for i := range result.Records {
		rec := &result.Records[i]
		run.Novel = append(run.Novel, NovelDetection{
			RunID:             run.ID,
			ProjectID:         rec.ProjectID,
			LocationID:        rec.LocationID,
			RecordingID:       rec.RecordingID,
			TaskID:            rec.TaskID,
			SpeciesCode:       rec.SpeciesCode,
			Confidence:        rec.Confidence,
			StartOffset:       rec.StartOffset,
			Location:          rec.Location,
			RecordingDateTime: rec.RecordingDateTime,
		})
	}
	return run
}

// Curve converts stored metrics back into curve points; NULL becomes NaN.
func (run *EvaluationRun) Curve() []evaluation.ThresholdMetric {
	curve := make([]evaluation.ThresholdMetric, 0, len(run.Metrics))
	for _, m := range run.Metrics {
		curve = append(curve, evaluation.ThresholdMetric{
			Threshold: m.Threshold,
			Precision: value(m.Precision),
			Recall:    value(m.Recall),
			FScore:    value(m.FScore),
		})
	}
	return curve
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func value(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
