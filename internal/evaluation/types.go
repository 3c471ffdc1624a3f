// Package evaluation measures how well classifier detections agree with
// human-verified ground truth and extracts detections no human annotated.
//
// The pipeline aggregates both event streams to a shared AggregationKey,
// joins them into a confusion matrix, sweeps integer score thresholds to
// build a precision/recall/F-score curve and selects the best threshold.
// FindNovelDetections runs the anti-join side of the same machinery.
package evaluation

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Resolution is the temporal or spatial granularity events are aggregated to.
type Resolution string

const (
	ResolutionTask      Resolution = "task"
	ResolutionMinute    Resolution = "minute"
	ResolutionRecording Resolution = "recording"
	ResolutionLocation  Resolution = "location"
	ResolutionProject   Resolution = "project"
)

// evaluationResolutions can be used with Evaluate.
var evaluationResolutions = []Resolution{ResolutionTask, ResolutionMinute, ResolutionRecording}

// discoveryResolutions can be used with FindNovelDetections.
var discoveryResolutions = []Resolution{ResolutionTask, ResolutionRecording, ResolutionLocation, ResolutionProject}

// ParseResolution converts a config or flag value to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case ResolutionTask, ResolutionMinute, ResolutionRecording, ResolutionLocation, ResolutionProject:
		return r, nil
	}
	return "", inputShapeErrorf("unknown resolution %q", s)
}

// TaskMethod is the transcription method a recording's task was processed with.
type TaskMethod string

const (
	MethodPerMinute TaskMethod = "1SPM" // one tag per species per minute
	MethodPerTask   TaskMethod = "1SPT" // one tag per species per task
	MethodNone      TaskMethod = "None" // not transcribed
)

func (m TaskMethod) is(other TaskMethod) bool {
	return strings.EqualFold(strings.TrimSpace(string(m)), string(other))
}

// Category is the taxonomic or source class of a ground-truth tag.
type Category string

const (
	CategoryBird      Category = "bird"
	CategoryMammal    Category = "mammal"
	CategoryAmphibian Category = "amphibian"
	CategoryAbiotic   Category = "abiotic"
	CategoryInsect    Category = "insect"
	CategoryHuman     Category = "human"
	CategoryUnknown   Category = "unknown"
)

// DefaultExcludedCategories are dropped from ground truth before matching.
var DefaultExcludedCategories = []Category{
	CategoryMammal,
	CategoryAmphibian,
	CategoryAbiotic,
	CategoryInsect,
	CategoryHuman,
	CategoryUnknown,
}

// DetectionEvent is one classifier detection window.
type DetectionEvent struct {
	ProjectID   int64
	LocationID  int64
	RecordingID int64
	TaskID      int64 // 0 when the classifier report is per recording
	SpeciesCode string
	Confidence  float64 // 0-100
	StartOffset float64 // seconds from recording start

	IsSpeciesAllowedInProject bool

	// Carried through to tag export only.
	Location          string
	RecordingDateTime time.Time
	TagDuration       float64
	MinFreq           float64
	MaxFreq           float64
	Version           string
}

// GroundTruthEvent is one human tag from the main report.
type GroundTruthEvent struct {
	ProjectID    int64
	LocationID   int64
	RecordingID  int64
	TaskID       int64
	SpeciesCode  string
	Category     Category
	TaskDuration float64 // seconds
	TaskMethod   TaskMethod
	StartOffset  float64 // seconds from task start, used at minute resolution

	Location          string
	RecordingDateTime time.Time
	Observer          string
}

// Reports is the pair of tables every operation consumes.
type Reports struct {
	Main       []GroundTruthEvent
	Classifier []DetectionEvent
}

// validate rejects a pair that is missing either table.
func (r Reports) validate() error {
	switch {
	case len(r.Main) == 0 && len(r.Classifier) == 0:
		return inputShapeErrorf("both main and classifier reports are empty")
	case len(r.Main) == 0:
		return inputShapeErrorf("main report is empty")
	case len(r.Classifier) == 0:
		return inputShapeErrorf("classifier report is empty")
	}
	return validateConfidences(r.Classifier)
}

// validateConfidences rejects scores that are not finite or fall outside
// the threshold scale.
func validateConfidences(events []DetectionEvent) error {
	for i := range events {
		c := events[i].Confidence
		if math.IsNaN(c) || c < MinThreshold || c > MaxThreshold {
			return inputShapeErrorf("detection %d on recording %s has confidence %v outside [%d, %d]",
				i, events[i].recording(), c, MinThreshold, MaxThreshold)
		}
	}
	return nil
}

// recordingRef identifies a recording across both reports.
type recordingRef struct {
	ProjectID   int64
	LocationID  int64
	RecordingID int64
}

func (e *DetectionEvent) recording() recordingRef {
	return recordingRef{e.ProjectID, e.LocationID, e.RecordingID}
}

func (e *GroundTruthEvent) recording() recordingRef {
	return recordingRef{e.ProjectID, e.LocationID, e.RecordingID}
}

func (r recordingRef) String() string {
	return fmt.Sprintf("%d/%d/%d", r.ProjectID, r.LocationID, r.RecordingID)
}

func requireResolution(res Resolution, allowed []Resolution, operation string) error {
	if !slices.Contains(allowed, res) {
		return inputShapeErrorf("resolution %q is not supported by %s", res, operation)
	}
	return nil
}
