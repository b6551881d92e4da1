// Package preprocess implements feature standardization and spectral data
// augmentation for small NIRS training sets.
package preprocess

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Standardizer centres and scales each wavelength channel using statistics
// fitted on the training split. Channels with zero variance keep a scale of
// 1 so the transform stays defined.
type Standardizer struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-channel mean and standard deviation from x.
func (s *Standardizer) Fit(x *mat.Dense) {
	rows, cols := x.Dims()
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		mat.Col(col, c, x)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[c] = mean
		s.Std[c] = std
	}
}

// Transform returns a standardized copy of x.
func (s *Standardizer) Transform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("channel count %d does not match fitted %d", cols, len(s.Mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, (x.At(r, c)-s.Mean[c])/s.Std[c])
		}
	}
	return out, nil
}

// InverseTransform maps standardized features back to original units.
func (s *Standardizer) InverseTransform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("channel count %d does not match fitted %d", cols, len(s.Mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, x.At(r, c)*s.Std[c]+s.Mean[c])
		}
	}
	return out, nil
}

// TargetScaler standardizes the scalar regression target. Predictions are
// mapped back to concentration units with Inverse before error reporting.
type TargetScaler struct {
	Mean float64
	Std  float64
}

// Fit computes mean and standard deviation of y.
func (ts *TargetScaler) Fit(y []float64) {
	mean, std := stat.MeanStdDev(y, nil)
	if std == 0 {
		std = 1
	}
	ts.Mean = mean
	ts.Std = std
}

// Transform returns a standardized copy of y.
func (ts *TargetScaler) Transform(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = (v - ts.Mean) / ts.Std
	}
	return out
}

// Inverse maps standardized values back to original units.
func (ts *TargetScaler) Inverse(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v*ts.Std + ts.Mean
	}
	return out
}
