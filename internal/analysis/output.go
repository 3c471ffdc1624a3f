package analysis

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tphakala/birdnet-eval/internal/datastore"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

// undefined is printed for NaN metrics.
const undefined = "n/a"

func newTable(w io.Writer, header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// PrintEvaluation writes the summary and the precision/recall curve.
func PrintEvaluation(w io.Writer, outcome *EvaluationOutcome) {
	summary := newTable(w, table.Row{"Resolution", "Human", "TP", "FP", "FN", "Best threshold", "F-score"}, 2, 3, 4, 5, 6, 7)
	best, ok := outcome.Best()
	bestThreshold, bestScore := undefined, undefined
	if ok {
		bestThreshold = strconv.Itoa(best.Threshold)
		bestScore = formatMetric(best.FScore)
	}
	summary.AppendRow(table.Row{
		outcome.Resolution, outcome.HumanTotal,
		outcome.Counts.TP, outcome.Counts.FP, outcome.Counts.FN,
		bestThreshold, bestScore,
	})
	summary.Render()

	curve := newTable(w, table.Row{"Threshold", "Precision", "Recall", "F-score"}, 1, 2, 3, 4)
	for _, m := range outcome.Metrics {
		curve.AppendRow(table.Row{m.Threshold, formatMetric(m.Precision), formatMetric(m.Recall), formatMetric(m.FScore)})
	}
	curve.Render()

	for _, advisory := range outcome.Advisories {
		_, _ = fmt.Fprintln(w, "note:", advisory)
	}
	if outcome.RunID != "" {
		_, _ = fmt.Fprintln(w, "run:", outcome.RunID)
	}
	if outcome.PlotPath != "" {
		_, _ = fmt.Fprintln(w, "plot:", outcome.PlotPath)
	}
}

// PrintNovel writes the novel detections.
func PrintNovel(w io.Writer, outcome *NovelOutcome) {
	tw := newTable(w, table.Row{"Species", "Confidence", "Project", "Location", "Recording", "Start (s)"}, 2, 6)
	for i := range outcome.Records {
		rec := &outcome.Records[i]
		location := rec.Location
		if location == "" {
			location = strconv.FormatInt(rec.LocationID, 10)
		}
		tw.AppendRow(table.Row{
			rec.SpeciesCode,
			strconv.FormatFloat(rec.Confidence, 'f', 1, 64),
			rec.ProjectID, location, rec.RecordingID,
			strconv.FormatFloat(rec.StartOffset, 'f', 1, 64),
		})
	}
	tw.AppendFooter(table.Row{"Total", len(outcome.Records)})
	tw.Render()

	if len(outcome.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "tags exported: %d\n", len(outcome.Tags))
	}
	if outcome.RunID != "" {
		_, _ = fmt.Fprintln(w, "run:", outcome.RunID)
	}
}

// PrintRuns writes stored run summaries, newest first.
func PrintRuns(w io.Writer, runs []datastore.EvaluationRun) {
	tw := newTable(w, table.Row{"ID", "Created", "Kind", "Resolution", "Best", "F-score", "Novel"}, 5, 6, 7)
	for i := range runs {
		run := &runs[i]
		best, score := "", ""
		if run.BestThreshold != nil {
			best = strconv.Itoa(*run.BestThreshold)
		}
		if run.BestFScore != nil {
			score = formatMetric(*run.BestFScore)
		}
		novel := ""
		if run.Kind == datastore.RunKindNovel {
			novel = strconv.Itoa(run.NovelCount)
		}
		tw.AppendRow(table.Row{
			run.ID, run.CreatedAt.Local().Format(time.DateTime),
			run.Kind, run.Resolution, best, score, novel,
		})
	}
	tw.Render()
}

// PrintRun writes one stored run with its curve.
func PrintRun(w io.Writer, run *datastore.EvaluationRun) {
	PrintRuns(w, []datastore.EvaluationRun{*run})
	if run.Kind == datastore.RunKindNovel {
		PrintNovel(w, &NovelOutcome{NovelResult: storedNovel(run)})
		return
	}
	curve := newTable(w, table.Row{"Threshold", "Precision", "Recall", "F-score"}, 1, 2, 3, 4)
	for _, m := range run.Curve() {
		curve.AppendRow(table.Row{m.Threshold, formatMetric(m.Precision), formatMetric(m.Recall), formatMetric(m.FScore)})
	}
	curve.Render()
}

func storedNovel(run *datastore.EvaluationRun) *evaluation.NovelResult {
	result := &evaluation.NovelResult{Records: make([]evaluation.NovelRecord, 0, len(run.Novel))}
	for _, n := range run.Novel {
		result.Records = append(result.Records, evaluation.NovelRecord{DetectionEvent: evaluation.DetectionEvent{
			ProjectID:         n.ProjectID,
			LocationID:        n.LocationID,
			RecordingID:       n.RecordingID,
			TaskID:            n.TaskID,
			SpeciesCode:       n.SpeciesCode,
			Confidence:        n.Confidence,
			StartOffset:       n.StartOffset,
			Location:          n.Location,
			RecordingDateTime: n.RecordingDateTime,
		}})
	}
	return result
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return undefined
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
