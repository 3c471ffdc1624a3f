package datastore

import (
	"time"
)

// Run kinds.
const (
	RunKindEvaluation = "evaluation"
	RunKindNovel      = "novel"
)

// EvaluationRun is one stored evaluate or novel detection invocation.
type EvaluationRun struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Kind      string    `gorm:"index;type:varchar(20)"`
	CreatedAt time.Time `gorm:"index"`

	MainReport       string
	ClassifierReport string
	Resolution       string `gorm:"type:varchar(20)"`

	// Evaluation runs
	ThresholdLo   int
	ThresholdHi   int
	BestThreshold *int
	BestFScore    *float64
	HumanTotal    int
	TP            int
	FP            int
	FN            int

	// Novel detection runs
	NovelThreshold float64
	NovelCount     int
	TagsExported   int

	Duration time.Duration

	Metrics []RunMetric      `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Novel   []NovelDetection `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// RunMetric is one point of a stored precision/recall curve. Undefined
// values are stored as NULL.
type RunMetric struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index;type:varchar(36);not null"`
	Threshold int
	Precision *float64
	Recall    *float64
	FScore    *float64
}

// NovelDetection is one stored classifier-only detection.
type NovelDetection struct {
	ID                uint   `gorm:"primaryKey"`
	RunID             string `gorm:"index;type:varchar(36);not null"`
	ProjectID         int64
	LocationID        int64
	RecordingID       int64
	TaskID            int64
	SpeciesCode       string `gorm:"index;type:varchar(32)"`
	Confidence        float64
	StartOffset       float64
	Location          string
	RecordingDateTime time.Time
}
