// Package report renders training results: loss-curve and prediction plots
// as PNGs, plus a single-page HTML report.
package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
)

// LossCurve writes a PNG of training and validation loss per epoch.
func LossCurve(stats []cnn.EpochStats, path string) error {
	if len(stats) == 0 {
		return fmt.Errorf("no epoch stats to plot")
	}

	trainPts := make(plotter.XYs, len(stats))
	valPts := make(plotter.XYs, len(stats))
	for i, es := range stats {
		trainPts[i].X = float64(es.Epoch)
		trainPts[i].Y = es.TrainLoss
		valPts[i].X = float64(es.Epoch)
		valPts[i].Y = es.ValLoss
	}

	p := plot.New()
	p.Title.Text = "Training Loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "MSE"

	trainLine, err := plotter.NewLine(trainPts)
	if err != nil {
		return fmt.Errorf("failed to build train line: %w", err)
	}
	trainLine.Width = vg.Points(1)
	trainLine.Color = color.RGBA{B: 255, A: 255}

	valLine, err := plotter.NewLine(valPts)
	if err != nil {
		return fmt.Errorf("failed to build validation line: %w", err)
	}
	valLine.Width = vg.Points(1)
	valLine.Color = color.RGBA{R: 255, A: 255}

	p.Add(trainLine, valLine)
	p.Legend.Add("train", trainLine)
	p.Legend.Add("validation", valLine)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save loss curve: %w", err)
	}
	return nil
}

// PredictedVsActual writes a PNG scatter of predictions against targets
// with the identity line for reference.
func PredictedVsActual(yTrue, yPred []float64, path string) error {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return fmt.Errorf("predictions (%d) and targets (%d) must be non-empty and equal length",
			len(yPred), len(yTrue))
	}

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}

	p := plot.New()
	p.Title.Text = "Predicted vs Actual"
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("failed to build identity line: %w", err)
	}
	identity.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}

	p.Add(scatter, identity)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save prediction plot: %w", err)
	}
	return nil
}
