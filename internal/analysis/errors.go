package analysis

import "github.com/tphakala/birdnet-eval/internal/errors"

// ErrAnalysisCanceled is returned when a run is interrupted by the user.
var ErrAnalysisCanceled = errors.NewStd("analysis canceled")
