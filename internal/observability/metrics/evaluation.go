package metrics

import (
	"math"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
)

// EvaluationMetrics contains Prometheus metrics describing evaluation and
// novel detection runs.
type EvaluationMetrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec

	precision     *prometheus.GaugeVec
	recall        *prometheus.GaugeVec
	fscore        *prometheus.GaugeVec
	bestThreshold *prometheus.GaugeVec
	bestFScore    *prometheus.GaugeVec
	outcomes      *prometheus.GaugeVec
	humanTotal    *prometheus.GaugeVec

	novelDetections *prometheus.GaugeVec
	tagsExported    prometheus.Counter

	reportCache *prometheus.GaugeVec

	collectors []prometheus.Collector
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(registry *prometheus.Registry) (*EvaluationMetrics, error) {
	m := &EvaluationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, errors.New(err).
			Component("metrics").
			Category(errors.CategoryMetrics).
			Build()
	}
	return m, nil
}

func (m *EvaluationMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birdnet_eval_operations_total",
			Help: "Total number of pipeline operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "birdnet_eval_operation_duration_seconds",
			Help:    "Time taken for pipeline operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birdnet_eval_errors_total",
			Help: "Total number of pipeline errors",
		},
		[]string{"operation", "error_type"},
	)

	curveLabels := []string{"resolution", "threshold"}
	m.precision = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_precision",
		Help: "Precision at a score threshold; absent when undefined",
	}, curveLabels)
	m.recall = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_recall",
		Help: "Recall at a score threshold; absent when undefined",
	}, curveLabels)
	m.fscore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_fscore",
		Help: "F-score at a score threshold; absent when undefined",
	}, curveLabels)

	m.bestThreshold = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_best_threshold",
		Help: "Threshold with the highest rounded F-score",
	}, []string{"resolution"})
	m.bestFScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_best_fscore",
		Help: "F-score at the best threshold",
	}, []string{"resolution"})

	m.outcomes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_confusion_rows",
		Help: "Confusion matrix rows by outcome before thresholding",
	}, []string{"resolution", "outcome"})
	m.humanTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_ground_truth_total",
		Help: "Number of human positives in the confusion matrix",
	}, []string{"resolution"})

	m.novelDetections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_novel_detections",
		Help: "Number of novel detections found by the last run",
	}, []string{"resolution"})
	m.tagsExported = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdnet_eval_tags_exported_total",
		Help: "Total number of tags written by novel detection export",
	})

	m.reportCache = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "birdnet_eval_report_cache_lookups",
		Help: "Report cache lookups by result",
	}, []string{"result"})

	m.collectors = []prometheus.Collector{
		m.operationsTotal, m.operationDuration, m.errorsTotal,
		m.precision, m.recall, m.fscore,
		m.bestThreshold, m.bestFScore, m.outcomes, m.humanTotal,
		m.novelDetections, m.tagsExported, m.reportCache,
	}
}

// Describe implements prometheus.Collector.
func (m *EvaluationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *EvaluationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *EvaluationMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *EvaluationMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *EvaluationMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordEvaluation publishes the curve and matrix summary of eval.
// Undefined curve values are left unset.
func (m *EvaluationMetrics) RecordEvaluation(eval *evaluation.Evaluation) {
	res := string(eval.Resolution)

	for _, metric := range eval.Metrics {
		threshold := strconv.Itoa(metric.Threshold)
		setDefined(m.precision.WithLabelValues(res, threshold), metric.Precision)
		setDefined(m.recall.WithLabelValues(res, threshold), metric.Recall)
		setDefined(m.fscore.WithLabelValues(res, threshold), metric.FScore)
	}

	if best, ok := eval.Best(); ok {
		m.bestThreshold.WithLabelValues(res).Set(float64(best.Threshold))
		m.bestFScore.WithLabelValues(res).Set(best.FScore)
	}

	m.outcomes.WithLabelValues(res, "tp").Set(float64(eval.Counts.TP))
	m.outcomes.WithLabelValues(res, "fp").Set(float64(eval.Counts.FP))
	m.outcomes.WithLabelValues(res, "fn").Set(float64(eval.Counts.FN))
	m.humanTotal.WithLabelValues(res).Set(float64(eval.HumanTotal))
}

// RecordNovel publishes the size of a novel detection result.
func (m *EvaluationMetrics) RecordNovel(res evaluation.Resolution, result *evaluation.NovelResult) {
	m.novelDetections.WithLabelValues(string(res)).Set(float64(len(result.Records)))
	m.tagsExported.Add(float64(len(result.Tags)))
}

// RecordReportCache publishes report cache statistics.
func (m *EvaluationMetrics) RecordReportCache(hits, misses int64) {
	m.reportCache.WithLabelValues("hit").Set(float64(hits))
	m.reportCache.WithLabelValues("miss").Set(float64(misses))
}

// ErrorType maps an error to a low-cardinality label value.
func ErrorType(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return string(enhanced.Category)
	}
	return string(errors.CategoryGeneric)
}

func setDefined(g prometheus.Gauge, v float64) {
	if math.IsNaN(v) {
		return
	}
	g.Set(v)
}
