package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = NewStd("sentinel")

type fakeReporter struct {
	reported []*EnhancedError
}

func (f *fakeReporter) ReportError(ee *EnhancedError) {
	f.reported = append(f.reported, ee)
	ee.MarkReported()
}

func (f *fakeReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestEnhancedErrorUnwrapsToSentinel(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("while sweeping: %w", errSentinel)).
		Category(CategoryEvaluation).
		Context("threshold", 50).
		Build()

	require.ErrorIs(t, ee, errSentinel)
	assert.True(t, IsCategory(ee, CategoryEvaluation))
	assert.False(t, IsNotFound(ee))
	assert.Equal(t, 50, ee.GetContext()["threshold"])
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := New(NewStd("a")).Category(CategoryNotFound).Build()
	b := New(NewStd("b")).Category(CategoryNotFound).Build()
	c := New(NewStd("c")).Category(CategoryValidation).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
	assert.True(t, IsNotFound(a))
}

func TestPriorityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.GetPriority())

	ee = New(NewStd("x")).Priority(PriorityHigh).Build()
	assert.Equal(t, PriorityHigh, ee.GetPriority())
}

func TestFileContextIsAnonymized(t *testing.T) {
	t.Parallel()

	ee := FileError(NewStd("open failed"), "/data/reports/main.csv", 2048).Component("report").Build()
	ctx := ee.GetContext()

	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "csv", ctx["file_extension"])
	assert.Equal(t, "small", ctx["file_size_category"])
	assert.Equal(t, CategoryFileIO, ee.Category)
	assert.Equal(t, "report", ee.GetComponent())
	assert.NotContains(t, ee.Error(), "/data/reports")
}

func TestReporterReceivesBuiltErrors(t *testing.T) {
	reporter := &fakeReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := Newf("invalid threshold range %d..%d", 90, 10).Build()

	require.Len(t, reporter.reported, 1)
	assert.True(t, ee.IsReported())
	assert.Equal(t, CategoryValidation, ee.Category)
}

func TestBasicURLScrub(t *testing.T) {
	t.Parallel()

	scrubbed := basicURLScrub("fetch https://api.example.com/report?api_key=secret123 failed")
	assert.Equal(t, "fetch https://api.example.com/report?[REDACTED] failed", scrubbed)

	scrubbed = basicURLScrub("config token=abc123 is invalid")
	assert.False(t, strings.Contains(scrubbed, "abc123"))
}
