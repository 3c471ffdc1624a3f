// Package observability exposes run metrics for scraping.
package observability

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
	"github.com/tphakala/birdnet-eval/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Evaluation *metrics.EvaluationMetrics
}

// NewMetrics creates a new instance of Metrics with a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	evaluationMetrics, err := metrics.NewEvaluationMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:   registry,
		Evaluation: evaluationMetrics,
	}, nil
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric in the Prometheus text format, for
// pickup by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryMetrics).
			Context("path", path).
			Build()
	}

	logger.Global().Module("observability").Debug("metrics textfile written",
		logger.String("path", path))
	return nil
}
