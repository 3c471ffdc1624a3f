package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birdnet-eval/internal/errors"
)

// Column aliases accepted in report headers. The first name is canonical.
var (
	colProjectID   = []string{"project_id", "projectid"}
	colLocationID  = []string{"location_id", "locationid"}
	colRecordingID = []string{"recording_id", "recordingid"}
	colTaskID      = []string{"task_id", "taskid"}
	colSpecies     = []string{"species_code", "species"}
	colCategory    = []string{"species_class", "category"}
	colTaskLength  = []string{"task_duration", "task_length", "tasklength"}
	colTaskMethod  = []string{"task_method", "method"}
	colStart       = []string{"start_s", "detection_time", "start_offset"}
	colConfidence  = []string{"confidence", "score"}
	colAllowed     = []string{"is_species_allowed_in_project", "allowed"}
	colLocation    = []string{"location", "location_name"}
	colRecorded    = []string{"recording_date_time", "recording_date"}
	colObserver    = []string{"observer", "transcriber"}
	colTagLength   = []string{"tag_duration", "tag_duration_s"}
	colMinFreq     = []string{"min_freq", "min_freq_hz"}
	colMaxFreq     = []string{"max_freq", "max_freq_hz"}
	colVersion     = []string{"version", "classifier_version"}
)

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// header maps normalized column names to their index.
type header map[string]int

func newHeader(names []string) header {
	h := make(header, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// index returns the position of the first alias present.
func (h header) index(aliases []string) (int, bool) {
	for _, alias := range aliases {
		if i, ok := h[alias]; ok {
			return i, true
		}
	}
	return -1, false
}

// require fails listing every missing column.
func (h header) require(table string, columns ...[]string) error {
	var missing []string
	for _, aliases := range columns {
		if _, ok := h.index(aliases); !ok {
			missing = append(missing, aliases[0])
		}
	}
	if len(missing) > 0 {
		return errors.Newf("%s report is missing required columns: %s", table, strings.Join(missing, ", ")).
			Component("report").
			Category(errors.CategoryFileParsing).
			Context("table", table).
			Build()
	}
	return nil
}

// row reads typed fields from one record, remembering the first failure.
type row struct {
	h      header
	fields []string
	line   int
	err    error
}

func (r *row) str(aliases []string) string {
	i, ok := r.h.index(aliases)
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r *row) fail(column string, value string, err error) {
	if r.err != nil {
		return
	}
	r.err = errors.Newf("line %d: invalid %s %q: %v", r.line, column, value, err).
		Component("report").
		Category(errors.CategoryFileParsing).
		Context("line", r.line).
		Context("column", column).
		Build()
}

func (r *row) id(aliases []string) int64 {
	s := r.str(aliases)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports write ids as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			r.fail(aliases[0], s, err)
			return 0
		}
		return int64(f)
	}
	return v
}

func (r *row) number(aliases []string) float64 {
	s := r.str(aliases)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(aliases[0], s, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(aliases[0], s, errors.NewStd("not a finite number"))
		return 0
	}
	return v
}

// score parses a classifier confidence on the 0 to 100 scale.
func (r *row) score(aliases []string) float64 {
	v := r.number(aliases)
	if v < 0 || v > 100 {
		r.fail(aliases[0], r.str(aliases), errors.NewStd("outside [0, 100]"))
		return 0
	}
	return v
}

func (r *row) flag(aliases []string) bool {
	s := strings.ToLower(r.str(aliases))
	switch s {
	case "":
		return false
	case "yes", "y":
		return true
	case "no", "n":
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		r.fail(aliases[0], s, err)
		return false
	}
	return v
}

func (r *row) timestamp(aliases []string) time.Time {
	s := r.str(aliases)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	r.fail(aliases[0], s, errors.NewStd("unrecognized date format"))
	return time.Time{}
}
