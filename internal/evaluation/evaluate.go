package evaluation

import (
	"context"
	"time"

	"github.com/tphakala/birdnet-eval/internal/logger"
)

// EvaluateOptions configures Evaluate.
type EvaluateOptions struct {
	Resolution              Resolution
	RemoveDisallowedSpecies bool

	// Species restricts the matrix to these codes when non-empty.
	Species []string

	Range ThresholdRange

	// ExcludeCategories overrides DefaultExcludedCategories when non-nil.
	ExcludeCategories []Category

	// Workers bounds the threshold sweep fan-out; 0 means GOMAXPROCS.
	Workers int
}

// Evaluation is the outcome of one Evaluate call.
type Evaluation struct {
	Resolution Resolution
	Range      ThresholdRange
	Metrics    []ThresholdMetric
	Matrix     *ConfusionMatrix
	HumanTotal int
	Counts     MatrixCounts
	Advisories []string
	Duration   time.Duration
}

// Best returns the curve point with the best rounded F-score.
func (e *Evaluation) Best() (ThresholdMetric, bool) {
	return BestMetric(e.Metrics)
}

// Evaluate compares classifier detections with ground truth at
// opts.Resolution and sweeps opts.Range. Detections from recordings absent
// in the main report are ignored.
func Evaluate(ctx context.Context, reports Reports, opts EvaluateOptions) (*Evaluation, error) {
	start := time.Now()

	if err := reports.validate(); err != nil {
		return nil, err
	}
	if err := requireResolution(opts.Resolution, evaluationResolutions, "evaluation"); err != nil {
		return nil, err
	}
	if err := opts.Range.Validate(); err != nil {
		return nil, err
	}
	if err := CheckTaskMethods(reports.Main, opts.Resolution); err != nil {
		return nil, err
	}

	log := GetLogger().With(logger.String("resolution", string(opts.Resolution)))

	transcribed := transcribedRecordings(reports.Main)
	detections := filterDetections(reports.Classifier, func(ev *DetectionEvent) bool {
		if _, ok := transcribed[ev.recording()]; !ok {
			return false
		}
		return !opts.RemoveDisallowedSpecies || ev.IsSpeciesAllowedInProject
	})

	aggregated, err := AggregateDetections(detections, opts.Resolution, NewTaskIndex(reports.Main))
	if err != nil {
		return nil, err
	}
	human := NormalizeGroundTruth(reports.Main, opts.Resolution, opts.ExcludeCategories)
	matrix := BuildConfusionMatrix(aggregated, human, opts.Species)

	log.Debug("confusion matrix built",
		logger.Int("detections", len(detections)),
		logger.Int("aggregated", len(aggregated)),
		logger.Int("human", len(human)),
		logger.Int("rows", len(matrix.Rows)))

	sweep, err := Sweep(ctx, matrix, opts.Range, opts.Workers)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Resolution: opts.Resolution,
		Range:      opts.Range,
		Metrics:    sweep.Metrics,
		Matrix:     matrix,
		HumanTotal: matrix.HumanTotal,
		Counts:     matrix.Counts(),
		Advisories: sweep.Advisories,
		Duration:   time.Since(start),
	}

	log.Info("evaluation completed",
		logger.Int("human_total", eval.HumanTotal),
		logger.Int("tp", eval.Counts.TP),
		logger.Int("fp", eval.Counts.FP),
		logger.Int("fn", eval.Counts.FN),
		logger.Int("thresholds", len(eval.Metrics)),
		logger.Duration("duration", eval.Duration))

	return eval, nil
}
