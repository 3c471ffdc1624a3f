package evaluation

import (
	"slices"
)

// AggregatedDetection is the strongest classifier score for one key.
type AggregatedDetection struct {
	Key        AggregationKey
	Confidence float64
}

// AggregateDetections reduces detections to one row per AggregationKey at
// res, keeping the maximum confidence. At task resolution each detection is
// attached to its owning tasks and dropped from any task it starts after the
// end of; detections without an owning task are dropped. Rows are sorted by
// key.
func AggregateDetections(events []DetectionEvent, res Resolution, tasks *TaskIndex) ([]AggregatedDetection, error) {
	if res == ResolutionTask && tasks == nil {
		return nil, inputShapeErrorf("task resolution requires a task index")
	}
	if err := validateConfidences(events); err != nil {
		return nil, err
	}

	best := maxConfidenceByKey(events, res, tasks)

	out := make([]AggregatedDetection, 0, len(best))
	for key, confidence := range best {
		out = append(out, AggregatedDetection{Key: key, Confidence: confidence})
	}
	slices.SortFunc(out, func(a, b AggregatedDetection) int {
		return compareKeys(a.Key, b.Key)
	})

	return out, nil
}

func maxConfidenceByKey(events []DetectionEvent, res Resolution, tasks *TaskIndex) map[AggregationKey]float64 {
	best := make(map[AggregationKey]float64)

	for i := range events {
		ev := &events[i]
		forEachKey(ev, res, tasks, func(key AggregationKey) {
			if current, ok := best[key]; !ok || ev.Confidence > current {
				best[key] = ev.Confidence
			}
		})
	}

	return best
}

// forEachKey calls fn with every key ev contributes to at res.
func forEachKey(ev *DetectionEvent, res Resolution, tasks *TaskIndex, fn func(AggregationKey)) {
	if res != ResolutionTask {
		fn(newKey(res, ev.recording(), 0, ev.StartOffset, ev.SpeciesCode))
		return
	}

	for _, task := range tasks.owningTasks(ev) {
		// Media windows can overrun the task; those detections belong to no task.
		if ev.StartOffset > task.Duration {
			continue
		}
		fn(newKey(res, ev.recording(), task.ID, ev.StartOffset, ev.SpeciesCode))
	}
}

// filterDetections returns the detections keep accepts, preserving order.
func filterDetections(events []DetectionEvent, keep func(*DetectionEvent) bool) []DetectionEvent {
	out := make([]DetectionEvent, 0, len(events))
	for i := range events {
		if keep(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}
