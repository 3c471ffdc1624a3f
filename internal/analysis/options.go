package analysis

import (
	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

// EvaluateOptions converts evaluation settings into options for
// evaluation.Evaluate.
func EvaluateOptions(settings *conf.Settings) (evaluation.EvaluateOptions, error) {
	es := &settings.Evaluation

	res, err := evaluation.ParseResolution(es.Resolution)
	if err != nil {
		return evaluation.EvaluateOptions{}, configError(err, "evaluation.resolution")
	}

	return evaluation.EvaluateOptions{
		Resolution:              res,
		RemoveDisallowedSpecies: es.RemoveDisallowedSpecies,
		Species:                 es.Species,
		Range:                   evaluation.ThresholdRange{Lo: es.Thresholds.Lo, Hi: es.Thresholds.Hi},
		ExcludeCategories:       categories(es.ExcludeCategories),
		Workers:                 es.Workers,
	}, nil
}

// NovelOptions converts novel detection settings into options for
// evaluation.FindNovelDetections.
func NovelOptions(settings *conf.Settings) (evaluation.NovelOptions, error) {
	ns := &settings.Novel

	res, err := evaluation.ParseResolution(ns.Resolution)
	if err != nil {
		return evaluation.NovelOptions{}, configError(err, "novel.resolution")
	}

	tie, err := evaluation.ParseTieBreaker(ns.TieBreak.Policy, ns.TieBreak.Seed)
	if err != nil {
		return evaluation.NovelOptions{}, configError(err, "novel.tiebreak.policy")
	}

	return evaluation.NovelOptions{
		Resolution:              res,
		Threshold:               ns.Threshold,
		RemoveDisallowedSpecies: ns.RemoveDisallowedSpecies,
		ExcludeCategories:       categories(settings.Evaluation.ExcludeCategories),
		TieBreaker:              tie,
		ExportTags:              ns.Export.Enabled,
		OutputPath:              ns.Export.Path,
	}, nil
}

// categories keeps nil as nil so the evaluation defaults apply.
func categories(names []string) []evaluation.Category {
	if names == nil {
		return nil
	}
	out := make([]evaluation.Category, 0, len(names))
	for _, name := range names {
		out = append(out, evaluation.Category(name))
	}
	return out
}

func configError(err error, key string) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryConfiguration).
		Context("key", key).
		Build()
}
