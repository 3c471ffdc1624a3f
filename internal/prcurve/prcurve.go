// Package prcurve renders precision/recall curves from a threshold sweep.
package prcurve

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// Default image size in inches.
const (
	DefaultWidth  = 6.0
	DefaultHeight = 4.0
)

var (
	precisionColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	recallColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	fscoreColor    = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	bestColor      = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// GetLogger returns the prcurve package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("prcurve")
}

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  float64 // inches
	Height float64 // inches
}

// New builds the curve plot. Undefined points are left out of their line and
// the best threshold, when one exists, is marked on the F-score line.
func New(metrics []evaluation.ThresholdMetric, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Score threshold"
	p.Y.Label.Text = "Metric"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	if len(metrics) > 0 {
		p.X.Min = float64(metrics[0].Threshold)
		p.X.Max = float64(metrics[len(metrics)-1].Threshold)
		if p.X.Min == p.X.Max {
			p.X.Min--
			p.X.Max++
		}
	}

	series := []struct {
		name  string
		color color.Color
		value func(evaluation.ThresholdMetric) float64
	}{
		{"Precision", precisionColor, func(m evaluation.ThresholdMetric) float64 { return m.Precision }},
		{"Recall", recallColor, func(m evaluation.ThresholdMetric) float64 { return m.Recall }},
		{"F-score", fscoreColor, func(m evaluation.ThresholdMetric) float64 { return m.FScore }},
	}

	for _, s := range series {
		pts := definedPoints(metrics, s.value)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, plotError(err, s.name)
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if best, ok := evaluation.BestMetric(metrics); ok {
		marker, err := plotter.NewScatter(plotter.XYs{{X: float64(best.Threshold), Y: best.FScore}})
		if err != nil {
			return nil, plotError(err, "best")
		}
		marker.GlyphStyle.Color = bestColor
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		marker.GlyphStyle.Radius = vg.Points(4)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("Best (%d)", best.Threshold), marker)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// Save renders metrics to path. The image format follows the file
// extension (png, svg, pdf, ...).
func Save(path string, metrics []evaluation.ThresholdMetric, opts Options) error {
	if path == "" {
		return errors.Newf("no plot path configured").
			Component("prcurve").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	p, err := New(metrics, opts.Title)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("prcurve").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if err := p.Save(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, path); err != nil {
		return errors.New(err).
			Component("prcurve").
			Category(errors.CategoryPlot).
			Context("path", path).
			Build()
	}

	GetLogger().Info("curve plot written",
		logger.String("path", path),
		logger.Int("points", len(metrics)))
	return nil
}

func definedPoints(metrics []evaluation.ThresholdMetric, value func(evaluation.ThresholdMetric) float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(metrics))
	for _, m := range metrics {
		v := value(m)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(m.Threshold), Y: v})
	}
	return pts
}

func plotError(err error, series string) error {
	return errors.New(err).
		Component("prcurve").
		Category(errors.CategoryPlot).
		Context("series", series).
		Build()
}
