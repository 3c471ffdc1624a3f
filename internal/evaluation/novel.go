package evaluation

import (
	"slices"

	"github.com/tphakala/birdnet-eval/internal/logger"
)

// NovelOptions configures FindNovelDetections.
type NovelOptions struct {
	Resolution              Resolution
	Threshold               float64
	RemoveDisallowedSpecies bool

	// ExcludeCategories overrides DefaultExcludedCategories when non-nil.
	ExcludeCategories []Category

	// TieBreaker defaults to FirstTie.
	TieBreaker TieBreaker

	ExportTags bool
	OutputPath string
}

// NovelRecord is a classifier detection whose key has no ground-truth match.
type NovelRecord struct {
	DetectionEvent
	Key AggregationKey
}

// NovelResult is the outcome of FindNovelDetections.
type NovelResult struct {
	Records []NovelRecord
	Tags    []TagRecord // set when tags were exported
}

// FindNovelDetections returns one classifier detection per key that passes
// the threshold but has no ground truth at opts.Resolution. When ties share
// the winning confidence, opts.TieBreaker chooses the representative. With
// ExportTags the records are also written as tags to OutputPath.
func FindNovelDetections(reports Reports, opts NovelOptions) (*NovelResult, error) {
	if opts.ExportTags && opts.OutputPath == "" {
		return nil, missingSinkError()
	}
	if err := reports.validate(); err != nil {
		return nil, err
	}
	if err := requireResolution(opts.Resolution, discoveryResolutions, "novel detection"); err != nil {
		return nil, err
	}
	if opts.Threshold < MinThreshold || opts.Threshold > MaxThreshold {
		return nil, inputShapeErrorf("threshold %.1f outside [%d, %d]", opts.Threshold, MinThreshold, MaxThreshold)
	}

	tie := opts.TieBreaker
	if tie == nil {
		tie = FirstTie{}
	}

	log := GetLogger().With(
		logger.String("resolution", string(opts.Resolution)),
		logger.Float64("threshold", opts.Threshold))

	candidates := filterDetections(reports.Classifier, func(ev *DetectionEvent) bool {
		if ev.Confidence < opts.Threshold {
			return false
		}
		return !opts.RemoveDisallowedSpecies || ev.IsSpeciesAllowedInProject
	})

	tasks := NewTaskIndex(reports.Main)
	best := maxConfidenceByKey(candidates, opts.Resolution, tasks)

	human := make(map[AggregationKey]struct{})
	for _, key := range NormalizeGroundTruth(reports.Main, opts.Resolution, opts.ExcludeCategories) {
		human[key] = struct{}{}
	}

	novel := antiJoin(best, human)
	if len(novel) == 0 {
		log.Info("no novel detections",
			logger.Int("candidates", len(candidates)),
			logger.Int("aggregated", len(best)))
		return nil, noNovelDetectionsError(opts.Resolution, opts.Threshold)
	}

	records := rejoin(candidates, novel, opts.Resolution, tasks, tie)

	log.Info("novel detections found",
		logger.Int("candidates", len(candidates)),
		logger.Int("aggregated", len(best)),
		logger.Int("novel", len(records)))

	result := &NovelResult{Records: records}
	if opts.ExportTags {
		result.Tags = FormatTags(records, tasks)
		if err := WriteTagsFile(opts.OutputPath, result.Tags); err != nil {
			return nil, err
		}
		log.Info("tags exported",
			logger.String("path", opts.OutputPath),
			logger.Int("tags", len(result.Tags)))
	}

	return result, nil
}

// antiJoin returns the aggregated keys, with their winning confidence, that
// ground truth does not contain.
func antiJoin(best map[AggregationKey]float64, human map[AggregationKey]struct{}) map[AggregationKey]float64 {
	novel := make(map[AggregationKey]float64)
	for key, confidence := range best {
		if _, ok := human[key]; !ok {
			novel[key] = confidence
		}
	}
	return novel
}

// rejoin recovers the raw detection behind each novel key by matching on key
// and confidence, then reduces ties to one record. Keys are visited in
// sorted order so a seeded tie breaker is reproducible.
func rejoin(events []DetectionEvent, novel map[AggregationKey]float64, res Resolution, tasks *TaskIndex, tie TieBreaker) []NovelRecord {
	ties := make(map[AggregationKey][]DetectionEvent, len(novel))

	for i := range events {
		ev := &events[i]
		forEachKey(ev, res, tasks, func(key AggregationKey) {
			if confidence, ok := novel[key]; ok && ev.Confidence == confidence {
				ties[key] = append(ties[key], *ev)
			}
		})
	}

	keys := make([]AggregationKey, 0, len(ties))
	for key := range ties {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)

	records := make([]NovelRecord, 0, len(keys))
	for _, key := range keys {
		group := ties[key]
		pick := tie.Pick(group)
		if pick < 0 || pick >= len(group) {
			GetLogger().Warn("tie breaker returned out of range index, keeping first candidate",
				logger.Int("pick", pick),
				logger.Int("candidates", len(group)))
			pick = 0
		}
		records = append(records, NovelRecord{DetectionEvent: group[pick], Key: key})
	}

	return records
}
