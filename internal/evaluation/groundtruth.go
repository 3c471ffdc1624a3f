package evaluation

import (
	"slices"
	"strings"
)

// CheckTaskMethods fails with ErrMethodIncompatible when any task was not
// transcribed, or when minute resolution is requested for a task whose
// method cannot place tags within a minute. Methods compare case-insensitively.
func CheckTaskMethods(main []GroundTruthEvent, res Resolution) error {
	type taskMethod struct {
		ref    recordingRef
		taskID int64
		method TaskMethod
	}
	checked := make(map[taskMethod]struct{})

	for i := range main {
		ev := &main[i]
		tm := taskMethod{ev.recording(), ev.TaskID, ev.TaskMethod}
		if _, done := checked[tm]; done {
			continue
		}
		checked[tm] = struct{}{}

		switch {
		case ev.TaskMethod.is(MethodNone):
			return methodIncompatibleError(tm.ref, ev.TaskMethod, res)
		case res == ResolutionMinute && !ev.TaskMethod.is(MethodPerMinute):
			return methodIncompatibleError(tm.ref, ev.TaskMethod, res)
		}
	}

	return nil
}

// NormalizeGroundTruth drops excluded categories and species-less tags and
// deduplicates the remainder to the aggregator's keys at res. A nil exclude
// list means DefaultExcludedCategories. Keys are sorted.
func NormalizeGroundTruth(main []GroundTruthEvent, res Resolution, exclude []Category) []AggregationKey {
	if exclude == nil {
		exclude = DefaultExcludedCategories
	}

	seen := make(map[AggregationKey]struct{})
	keys := make([]AggregationKey, 0, len(main))

	for i := range main {
		ev := &main[i]
		if ev.SpeciesCode == "" || isExcluded(ev.Category, exclude) {
			continue
		}

		key := newKey(res, ev.recording(), ev.TaskID, ev.StartOffset, ev.SpeciesCode)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	slices.SortFunc(keys, compareKeys)
	return keys
}

func isExcluded(category Category, exclude []Category) bool {
	for _, c := range exclude {
		if strings.EqualFold(string(category), string(c)) {
			return true
		}
	}
	return false
}

// transcribedRecordings returns the recordings present in the main report.
func transcribedRecordings(main []GroundTruthEvent) map[recordingRef]struct{} {
	refs := make(map[recordingRef]struct{})
	for i := range main {
		refs[main[i].recording()] = struct{}{}
	}
	return refs
}
