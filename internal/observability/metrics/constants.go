// Package metrics provides constants used across metric definitions.
package metrics

// Operation type constants.
const (
	// OpEvaluate is a full evaluation run.
	OpEvaluate = "evaluate"
	// OpNovel is a novel detection run.
	OpNovel = "novel"
	// OpSweep is one threshold sweep.
	OpSweep = "sweep"
	// OpLoadReports reads both input reports.
	OpLoadReports = "load_reports"
	// OpSaveRun stores a run in the datastore.
	OpSaveRun = "save_run"
	// OpExportTags writes the tag file.
	OpExportTags = "export_tags"
	// OpPlot renders the precision/recall curve.
	OpPlot = "plot"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket parameters.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2.0
	BucketCount15  = 15 // 1ms to ~16s
)
