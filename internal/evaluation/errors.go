package evaluation

import (
	"fmt"

	"github.com/tphakala/birdnet-eval/internal/errors"
)

// Sentinel errors. Every error returned by this package wraps one of them;
// match with errors.Is.
var (
	// ErrInputShape reports a missing table, unknown resolution or invalid range.
	ErrInputShape = errors.NewStd("invalid evaluation input")

	// ErrMethodIncompatible reports a transcription method that cannot
	// support the requested resolution.
	ErrMethodIncompatible = errors.NewStd("transcription method incompatible with resolution")

	// ErrNoNovelDetections reports an empty anti-join.
	ErrNoNovelDetections = errors.NewStd("no novel detections found")

	// ErrMissingSink reports a tag export without a destination path.
	ErrMissingSink = errors.NewStd("tag export requested without an output path")
)

const componentName = "evaluation"

func inputShapeErrorf(format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInputShape, fmt.Sprintf(format, args...))).
		Component(componentName).
		Category(errors.CategoryValidation).
		Build()
}

func methodIncompatibleError(ref recordingRef, method TaskMethod, res Resolution) error {
	return errors.New(fmt.Errorf("%w: recording %s uses method %q, resolution %q", ErrMethodIncompatible, ref, method, res)).
		Component(componentName).
		Category(errors.CategoryValidation).
		Context("method", string(method)).
		Context("resolution", string(res)).
		Build()
}

func noNovelDetectionsError(res Resolution, threshold float64) error {
	return errors.New(fmt.Errorf("%w at %s resolution with threshold %.1f", ErrNoNovelDetections, res, threshold)).
		Component(componentName).
		Category(errors.CategoryNotFound).
		Context("resolution", string(res)).
		Context("threshold", threshold).
		Build()
}

func missingSinkError() error {
	return errors.New(ErrMissingSink).
		Component(componentName).
		Category(errors.CategoryConfiguration).
		Build()
}
