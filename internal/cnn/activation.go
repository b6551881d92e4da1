package cnn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	lastX *mat.Dense
}

// Forward clamps negative values to zero.
func (r *ReLU) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	r.lastX = x

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := x.At(i, j); v > 0 {
				out.Set(i, j, v)
			}
		}
	}
	return out
}

// Backward passes gradient only where the input was positive.
func (r *ReLU) Backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()

	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if r.lastX.At(i, j) > 0 {
				dx.Set(i, j, grad.At(i, j))
			}
		}
	}
	return dx
}

// Dropout zeroes a random fraction of activations during training, scaling
// the survivors by 1/(1-rate) so expected activation magnitude is unchanged
// (inverted dropout). At inference it is the identity.
type Dropout struct {
	rate float64
	rng  *rand.Rand

	mask []float64
}

// NewDropout creates a dropout layer. Rate must be in [0, 1).
func NewDropout(rate float64, rng *rand.Rand) (*Dropout, error) {
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("dropout rate must be in [0, 1), got %v", rate)
	}
	return &Dropout{rate: rate, rng: rng}, nil
}

// Forward applies the dropout mask when training.
func (d *Dropout) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	if !train || d.rate == 0 {
		d.mask = nil
		return x
	}

	keep := 1 - d.rate
	d.mask = make([]float64, rows*cols)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if d.rng.Float64() >= d.rate {
				d.mask[i*cols+j] = 1 / keep
				out.Set(i, j, x.At(i, j)/keep)
			}
		}
	}
	return out
}

// Backward applies the same mask used in the forward pass.
func (d *Dropout) Backward(grad *mat.Dense) *mat.Dense {
	if d.mask == nil {
		return grad
	}

	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dx.Set(i, j, grad.At(i, j)*d.mask[i*cols+j])
		}
	}
	return dx
}
