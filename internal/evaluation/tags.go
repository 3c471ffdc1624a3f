package evaluation

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/tphakala/birdnet-eval/internal/errors"
)

// Tag export defaults.
const (
	DefaultVocalization = "Song"
	DefaultAbundance    = "1"
	DefaultTagDuration  = 3.0 // seconds
	TagObserver         = "BirdNET"

	tagTimeLayout = "2006-01-02 15:04:05"
)

// TagColumns is the header of an exported tag file, in column order.
var TagColumns = []string{
	"location",
	"recording_date_time",
	"method",
	"task_duration",
	"observer",
	"species_code",
	"individual_order",
	"vocalization",
	"abundance",
	"start_s",
	"tag_duration_s",
	"min_freq_hz",
	"max_freq_hz",
	"confidence",
	"classifier_version",
}

// TagRecord is one upload-ready tag.
type TagRecord struct {
	Location          string
	RecordingDateTime time.Time
	Method            TaskMethod
	TaskDuration      float64
	Observer          string
	SpeciesCode       string
	IndividualOrder   int
	Vocalization      string
	Abundance         string
	StartOffset       float64
	TagDuration       float64
	MinFreq           float64
	MaxFreq           float64
	Confidence        float64
	Version           string
}

// individualKey groups tags that number their individuals together.
type individualKey struct {
	locationID int64
	location   string
	recorded   time.Time
	species    string
}

// FormatTags reshapes novel records into tags. Each record is exported under
// its key's task, or for coarser keys under the first task of its recording
// that contains its start. Individuals are numbered from 1 per location,
// recording time and species in start order. Records without such a task
// are dropped after numbering.
func FormatTags(records []NovelRecord, tasks *TaskIndex) []TagRecord {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b NovelRecord) int {
		return cmp.Or(
			cmp.Compare(a.LocationID, b.LocationID),
			cmp.Compare(a.Location, b.Location),
			a.RecordingDateTime.Compare(b.RecordingDateTime),
			cmp.Compare(a.SpeciesCode, b.SpeciesCode),
			cmp.Compare(a.StartOffset, b.StartOffset),
		)
	})

	counters := make(map[individualKey]int)
	tags := make([]TagRecord, 0, len(ordered))

	for i := range ordered {
		rec := &ordered[i]

		var task Task
		var ok bool
		if tasks != nil {
			task, ok = tasks.exportTask(rec)
		}

		ik := individualKey{rec.LocationID, rec.Location, rec.RecordingDateTime, rec.SpeciesCode}
		counters[ik]++
		order := counters[ik]

		if !ok {
			continue
		}

		tags = append(tags, TagRecord{
			Location:          rec.Location,
			RecordingDateTime: rec.RecordingDateTime,
			Method:            task.Method,
			TaskDuration:      task.Duration,
			Observer:          TagObserver,
			SpeciesCode:       rec.SpeciesCode,
			IndividualOrder:   order,
			Vocalization:      DefaultVocalization,
			Abundance:         DefaultAbundance,
			StartOffset:       rec.StartOffset,
			TagDuration:       cmp.Or(rec.TagDuration, DefaultTagDuration),
			MinFreq:           rec.MinFreq,
			MaxFreq:           rec.MaxFreq,
			Confidence:        rec.Confidence,
			Version:           rec.Version,
		})
	}

	return tags
}

// values returns the record's fields in TagColumns order.
func (t *TagRecord) values() []string {
	recorded := ""
	if !t.RecordingDateTime.IsZero() {
		recorded = t.RecordingDateTime.Format(tagTimeLayout)
	}
	return []string{
		t.Location,
		recorded,
		string(t.Method),
		formatFloat(t.TaskDuration),
		t.Observer,
		t.SpeciesCode,
		strconv.Itoa(t.IndividualOrder),
		t.Vocalization,
		t.Abundance,
		formatFloat(t.StartOffset),
		formatFloat(t.TagDuration),
		optionalFloat(t.MinFreq),
		optionalFloat(t.MaxFreq),
		formatFloat(t.Confidence),
		t.Version,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// optionalFloat leaves unset frequency bounds empty.
func optionalFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return formatFloat(v)
}

// WriteTags writes a header row followed by one row per tag.
func WriteTags(w io.Writer, tags []TagRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(TagColumns); err != nil {
		return exportError(err, "write_header")
	}
	for i := range tags {
		if err := cw.Write(tags[i].values()); err != nil {
			return exportError(err, "write_row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return exportError(err, "flush")
	}
	return nil
}

// WriteTagsFile writes tags to path, creating parent directories.
func WriteTagsFile(path string, tags []TagRecord) (err error) {
	if path == "" {
		return missingSinkError()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportError(err, "create_directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return exportError(err, "create_file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = exportError(cerr, "close_file")
		}
	}()

	return WriteTags(f, tags)
}

func exportError(err error, operation string) error {
	return errors.New(fmt.Errorf("tag export: %w", err)).
		Component(componentName).
		Category(errors.CategoryExport).
		Context("operation", operation).
		Build()
}
