package evaluation

import (
	"cmp"
	"math"
)

// AggregationKey is the composite identity events are grouped and joined on.
// Fields a resolution does not use stay zero, so keys built from either
// report compare equal whenever their identities match.
type AggregationKey struct {
	ProjectID   int64
	LocationID  int64
	RecordingID int64
	TaskID      int64
	Minute      int
	SpeciesCode string
}

// MinuteIndex maps a start offset to its 1-based minute: 1 for offset 0,
// otherwise ceil(offset/60).
func MinuteIndex(startOffset float64) int {
	if startOffset <= 0 {
		return 1
	}
	return int(math.Ceil(startOffset / 60))
}

// newKey projects identity fields onto the fields res keeps.
func newKey(res Resolution, ref recordingRef, taskID int64, startOffset float64, species string) AggregationKey {
	key := AggregationKey{ProjectID: ref.ProjectID, SpeciesCode: species}

	switch res {
	case ResolutionProject:
		// project + species
	case ResolutionLocation:
		key.LocationID = ref.LocationID
	case ResolutionRecording:
		key.LocationID = ref.LocationID
		key.RecordingID = ref.RecordingID
	case ResolutionTask:
		key.LocationID = ref.LocationID
		key.RecordingID = ref.RecordingID
		key.TaskID = taskID
	case ResolutionMinute:
		key.LocationID = ref.LocationID
		key.RecordingID = ref.RecordingID
		key.Minute = MinuteIndex(startOffset)
	}

	return key
}

func compareKeys(a, b AggregationKey) int {
	return cmp.Or(
		cmp.Compare(a.ProjectID, b.ProjectID),
		cmp.Compare(a.LocationID, b.LocationID),
		cmp.Compare(a.RecordingID, b.RecordingID),
		cmp.Compare(a.TaskID, b.TaskID),
		cmp.Compare(a.Minute, b.Minute),
		cmp.Compare(a.SpeciesCode, b.SpeciesCode),
	)
}

// Task is one human transcription task of a recording.
type Task struct {
	ID        int64
	Duration  float64
	Method    TaskMethod
	Recording recordingRef
}

// TaskIndex looks up tasks by id and by owning recording.
type TaskIndex struct {
	byID        map[int64]Task
	byRecording map[recordingRef][]Task
}

// NewTaskIndex collects the distinct tasks referenced by the main report.
// Tasks keep first-seen order within a recording.
func NewTaskIndex(main []GroundTruthEvent) *TaskIndex {
	idx := &TaskIndex{
		byID:        make(map[int64]Task),
		byRecording: make(map[recordingRef][]Task),
	}

	for i := range main {
		ev := &main[i]
		if ev.TaskID == 0 {
			continue
		}
		if _, seen := idx.byID[ev.TaskID]; seen {
			continue
		}
		task := Task{
			ID:        ev.TaskID,
			Duration:  ev.TaskDuration,
			Method:    ev.TaskMethod,
			Recording: ev.recording(),
		}
		idx.byID[task.ID] = task
		idx.byRecording[task.Recording] = append(idx.byRecording[task.Recording], task)
	}

	return idx
}

// Task returns the task with the given id.
func (idx *TaskIndex) Task(id int64) (Task, bool) {
	task, ok := idx.byID[id]
	return task, ok
}

// Len returns the number of distinct tasks.
func (idx *TaskIndex) Len() int {
	return len(idx.byID)
}

// owningTasks returns the tasks a detection belongs to: the named task when
// the detection carries a task id, otherwise every task of its recording.
func (idx *TaskIndex) owningTasks(ev *DetectionEvent) []Task {
	if ev.TaskID != 0 {
		task, ok := idx.byID[ev.TaskID]
		if !ok || task.Recording != ev.recording() {
			return nil
		}
		return []Task{task}
	}
	return idx.byRecording[ev.recording()]
}

// exportTask resolves the single task a novel record is exported under.
// Records keyed at task resolution keep their key's task. Otherwise the
// first owning task long enough to contain the start offset is used.
func (idx *TaskIndex) exportTask(rec *NovelRecord) (Task, bool) {
	if rec.Key.TaskID != 0 {
		task, ok := idx.byID[rec.Key.TaskID]
		if !ok || task.Recording != rec.recording() {
			return Task{}, false
		}
		return task, true
	}

	for _, task := range idx.owningTasks(&rec.DetectionEvent) {
		if rec.StartOffset <= task.Duration {
			return task, true
		}
	}
	return Task{}, false
}
