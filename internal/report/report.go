// Package report reads the main (ground truth) and classifier CSV exports
// into evaluation reports.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// DefaultCacheTTL is used when a Loader is created without a TTL.
const DefaultCacheTTL = 10 * time.Minute

const (
	tableMain       = "main"
	tableClassifier = "classifier"
)

// ReadMain parses a main report.
func ReadMain(r io.Reader) ([]evaluation.GroundTruthEvent, error) {
	var events []evaluation.GroundTruthEvent

	err := readTable(r, tableMain, [][]string{colProjectID, colLocationID, colRecordingID, colSpecies, colTaskMethod},
		func(rw *row) {
			events = append(events, evaluation.GroundTruthEvent{
				ProjectID:         rw.id(colProjectID),
				LocationID:        rw.id(colLocationID),
				RecordingID:       rw.id(colRecordingID),
				TaskID:            rw.id(colTaskID),
				SpeciesCode:       rw.str(colSpecies),
				Category:          evaluation.Category(rw.str(colCategory)),
				TaskDuration:      rw.number(colTaskLength),
				TaskMethod:        evaluation.TaskMethod(rw.str(colTaskMethod)),
				StartOffset:       rw.number(colStart),
				Location:          rw.str(colLocation),
				RecordingDateTime: rw.timestamp(colRecorded),
				Observer:          rw.str(colObserver),
			})
		})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ReadClassifier parses a classifier report.
func ReadClassifier(r io.Reader) ([]evaluation.DetectionEvent, error) {
	var events []evaluation.DetectionEvent

	err := readTable(r, tableClassifier, [][]string{colProjectID, colLocationID, colRecordingID, colSpecies, colConfidence},
		func(rw *row) {
			events = append(events, evaluation.DetectionEvent{
				ProjectID:                 rw.id(colProjectID),
				LocationID:                rw.id(colLocationID),
				RecordingID:               rw.id(colRecordingID),
				TaskID:                    rw.id(colTaskID),
				SpeciesCode:               rw.str(colSpecies),
				Confidence:                rw.score(colConfidence),
				StartOffset:               rw.number(colStart),
				IsSpeciesAllowedInProject: rw.flag(colAllowed),
				Location:                  rw.str(colLocation),
				RecordingDateTime:         rw.timestamp(colRecorded),
				TagDuration:               rw.number(colTagLength),
				MinFreq:                   rw.number(colMinFreq),
				MaxFreq:                   rw.number(colMaxFreq),
				Version:                   rw.str(colVersion),
			})
		})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// readTable validates the header and calls fn for every data row.
func readTable(r io.Reader, table string, required [][]string, fn func(*row)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	names, err := reader.Read()
	if err == io.EOF {
		return errors.Newf("%s report is empty", table).
			Component("report").
			Category(errors.CategoryFileParsing).
			Context("table", table).
			Build()
	}
	if err != nil {
		return parseError(err, table)
	}

	h := newHeader(names)
	if err := h.require(table, required...); err != nil {
		return err
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return parseError(err, table)
		}
		line++

		if isBlank(fields) {
			continue
		}

		rw := &row{h: h, fields: fields, line: line}
		fn(rw)
		if rw.err != nil {
			return rw.err
		}
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

func parseError(err error, table string) error {
	return errors.New(fmt.Errorf("reading %s report: %w", table, err)).
		Component("report").
		Category(errors.CategoryFileParsing).
		Context("table", table).
		Build()
}

// Loader reads report files and caches the parsed result per file version.
type Loader struct {
	cache  *cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLoader creates a loader whose entries expire after ttl.
func NewLoader(ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Loader{cache: cache.New(ttl, ttl*2)}
}

// Load reads both reports.
func (l *Loader) Load(mainPath, classifierPath string) (evaluation.Reports, error) {
	groundTruth, err := l.LoadMain(mainPath)
	if err != nil {
		return evaluation.Reports{}, err
	}
	classifier, err := l.LoadClassifier(classifierPath)
	if err != nil {
		return evaluation.Reports{}, err
	}
	return evaluation.Reports{Main: groundTruth, Classifier: classifier}, nil
}

// LoadMain reads a main report file.
func (l *Loader) LoadMain(path string) ([]evaluation.GroundTruthEvent, error) {
	return loadCached(l, tableMain, path, ReadMain)
}

// LoadClassifier reads a classifier report file.
func (l *Loader) LoadClassifier(path string) ([]evaluation.DetectionEvent, error) {
	return loadCached(l, tableClassifier, path, ReadClassifier)
}

// Stats returns cache hit and miss counts.
func (l *Loader) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

// Flush drops every cached report.
func (l *Loader) Flush() {
	l.cache.Flush()
}

func loadCached[T any](l *Loader, table, path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, errors.Newf("no %s report path configured", table).
			Component("report").
			Category(errors.CategoryConfiguration).
			Context("table", table).
			Build()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New(err).
			Component("report").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.FileError(err, abs, 0).
			Component("report").
			Build()
	}

	// The key changes whenever the file is rewritten.
	cacheKey := fmt.Sprintf("%s:%s:%d:%d", table, abs, info.ModTime().UnixNano(), info.Size())
	if cached, found := l.cache.Get(cacheKey); found {
		if events, ok := cached.([]T); ok {
			l.hits.Add(1)
			GetLogger().Debug("report cache hit",
				logger.String("table", table),
				logger.String("path", abs))
			return events, nil
		}
	}
	l.misses.Add(1)

	start := time.Now()
	f, err := os.Open(abs)
	if err != nil {
		return nil, errors.FileError(err, abs, info.Size()).
			Component("report").
			Build()
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			GetLogger().Warn("failed to close report file", logger.Error(cerr))
		}
	}()

	events, err := parse(f)
	if err != nil {
		return nil, err
	}

	l.cache.Set(cacheKey, events, cache.DefaultExpiration)

	GetLogger().Info("report loaded",
		logger.String("table", table),
		logger.String("path", abs),
		logger.Int("rows", len(events)),
		logger.Duration("duration", time.Since(start)))

	return events, nil
}
