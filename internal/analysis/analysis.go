// Package analysis runs evaluations end to end: it loads the reports,
// calls the evaluation package, then persists and publishes the outcome.
package analysis

import (
	"context"
	"time"

	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/datastore"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
	"github.com/tphakala/birdnet-eval/internal/logger"
	"github.com/tphakala/birdnet-eval/internal/observability"
	"github.com/tphakala/birdnet-eval/internal/observability/metrics"
	"github.com/tphakala/birdnet-eval/internal/prcurve"
	"github.com/tphakala/birdnet-eval/internal/report"
)

// Runner carries the long-lived collaborators of a CLI invocation.
type Runner struct {
	settings *conf.Settings
	loader   *report.Loader
	store    datastore.Interface
	metrics  *observability.Metrics
	recorder metrics.Recorder
}

// EvaluationOutcome is the result of RunEvaluation.
type EvaluationOutcome struct {
	*evaluation.Evaluation
	RunID    string // empty when no datastore is configured
	PlotPath string // empty when plotting is disabled
}

// NovelOutcome is the result of RunNovel.
type NovelOutcome struct {
	*evaluation.NovelResult
	Resolution evaluation.Resolution
	RunID      string
}

// NewRunner opens the configured datastore and metrics registry.
func NewRunner(settings *conf.Settings) (*Runner, error) {
	r := &Runner{
		settings: settings,
		loader:   report.NewLoader(settings.Input.CacheTTL),
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}
	r.metrics = m
	r.recorder = m.Evaluation

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return nil, err
		}
		r.store = store
	}

	return r, nil
}

// Store returns the opened datastore, or nil.
func (r *Runner) Store() datastore.Interface {
	return r.store
}

// Close writes the metrics textfile and closes the datastore.
func (r *Runner) Close() error {
	var errs []error
	if r.settings.Output.Metrics.Enabled {
		hits, misses := r.loader.Stats()
		r.metrics.Evaluation.RecordReportCache(hits, misses)
		if err := r.metrics.WriteTextfile(r.settings.Output.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadReports reads both input reports through the cache.
func (r *Runner) loadReports() (evaluation.Reports, error) {
	start := time.Now()
	reports, err := r.loader.Load(r.settings.Input.Main, r.settings.Input.Classifier)
	r.observe(metrics.OpLoadReports, start, err)
	return reports, err
}

// RunEvaluation evaluates the classifier report against the main report.
func (r *Runner) RunEvaluation(ctx context.Context) (*EvaluationOutcome, error) {
	opts, err := EvaluateOptions(r.settings)
	if err != nil {
		return nil, err
	}

	reports, err := r.loadReports()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eval, err := evaluation.Evaluate(ctx, reports, opts)
	r.observe(metrics.OpEvaluate, start, err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Join(ErrAnalysisCanceled, err)
		}
		return nil, err
	}
	r.metrics.Evaluation.RecordEvaluation(eval)

	outcome := &EvaluationOutcome{Evaluation: eval}

	if r.store != nil {
		run := datastore.NewEvaluationRun(eval, r.sources())
		if err := r.saveRun(run); err != nil {
			return nil, err
		}
		outcome.RunID = run.ID
	}

	if plot := r.settings.Output.Plot; plot.Enabled {
		start := time.Now()
		err := prcurve.Save(plot.Path, eval.Metrics, prcurve.Options{
			Title:  "Precision/recall at " + string(eval.Resolution) + " resolution",
			Width:  plot.Width,
			Height: plot.Height,
		})
		r.observe(metrics.OpPlot, start, err)
		if err != nil {
			return nil, err
		}
		outcome.PlotPath = plot.Path
	}

	return outcome, nil
}

// RunNovel finds classifier detections with no ground truth.
func (r *Runner) RunNovel(ctx context.Context) (*NovelOutcome, error) {
	opts, err := NovelOptions(r.settings)
	if err != nil {
		return nil, err
	}

	reports, err := r.loadReports()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrAnalysisCanceled, err)
	}

	start := time.Now()
	result, err := evaluation.FindNovelDetections(reports, opts)
	r.observe(metrics.OpNovel, start, err)
	if opts.ExportTags {
		r.observe(metrics.OpExportTags, start, err)
	}
	if err != nil {
		return nil, err
	}
	r.metrics.Evaluation.RecordNovel(opts.Resolution, result)

	outcome := &NovelOutcome{NovelResult: result, Resolution: opts.Resolution}

	if r.store != nil {
		run := datastore.NewNovelRun(result, opts, r.sources(), time.Since(start))
		if err := r.saveRun(run); err != nil {
			return nil, err
		}
		outcome.RunID = run.ID
	}

	return outcome, nil
}

func (r *Runner) saveRun(run *datastore.EvaluationRun) error {
	start := time.Now()
	err := r.store.SaveRun(run)
	r.observe(metrics.OpSaveRun, start, err)
	if err == nil {
		GetLogger().Info("run stored",
			logger.String("run_id", run.ID),
			logger.String("kind", run.Kind))
	}
	return err
}

func (r *Runner) sources() datastore.Sources {
	return datastore.Sources{Main: r.settings.Input.Main, Classifier: r.settings.Input.Classifier}
}

// observe records the outcome of one pipeline stage.
func (r *Runner) observe(operation string, start time.Time, err error) {
	r.recorder.RecordDuration(operation, time.Since(start).Seconds())
	if err != nil {
		r.recorder.RecordOperation(operation, metrics.StatusError)
		r.recorder.RecordError(operation, metrics.ErrorType(err))
		return
	}
	r.recorder.RecordOperation(operation, metrics.StatusSuccess)
}

// WithRunner opens a Runner, calls fn and closes the Runner. A close error
// is returned only when fn succeeded.
func WithRunner(settings *conf.Settings, fn func(*Runner) error) (err error) {
	runner, err := NewRunner(settings)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			if err == nil {
				err = cerr
				return
			}
			GetLogger().Warn("failed to close runner", logger.Error(cerr))
		}
	}()
	return fn(runner)
}
