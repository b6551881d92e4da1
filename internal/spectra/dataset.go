package spectra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dataset pairs a feature matrix with its regression targets. X is samples ×
// channels; Y holds one concentration value per sample.
type Dataset struct {
	X           *mat.Dense
	Y           []float64
	Wavelengths []float64
}

// NewDataset validates shape consistency between features and targets.
func NewDataset(x *mat.Dense, y []float64, wavelengths []float64) (*Dataset, error) {
	rows, cols := x.Dims()
	if cols == 0 {
		return nil, fmt.Errorf("dataset has no feature channels")
	}
	if rows != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and target count (%d) differ", rows, len(y))
	}
	if wavelengths != nil && len(wavelengths) != cols {
		return nil, fmt.Errorf("wavelength count (%d) and channel count (%d) differ", len(wavelengths), cols)
	}
	return &Dataset{X: x, Y: y, Wavelengths: wavelengths}, nil
}

// NumSamples returns the number of rows in the dataset.
func (d *Dataset) NumSamples() int {
	rows, _ := d.X.Dims()
	return rows
}

// NumChannels returns the number of wavelength channels per sample.
func (d *Dataset) NumChannels() int {
	_, cols := d.X.Dims()
	return cols
}
