// Package cnn implements a small 1D convolutional network for spectral
// regression: forward and backward passes, Adam optimization, a mini-batch
// training loop with a plateau learning-rate schedule, and regression
// metrics.
//
// Per-sample tensors are *mat.Dense matrices of shape channels × length.
// The network input is a single-channel spectrum (1 × wavelengths).
package cnn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is one trainable tensor stored flat, with its accumulated gradient.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

func newParam(name string, n int) *Param {
	return &Param{
		Name:  name,
		Value: make([]float64, n),
		Grad:  make([]float64, n),
	}
}

// Layer is one step of the network. Forward consumes a channels × length
// matrix and returns the layer output; Backward consumes the gradient with
// respect to that output, accumulates parameter gradients, and returns the
// gradient with respect to the input of the preceding Forward call.
//
// Layers keep state from the last Forward call, so a Forward must be
// followed by its matching Backward before the next sample.
type Layer interface {
	Forward(x *mat.Dense, train bool) *mat.Dense
	Backward(grad *mat.Dense) *mat.Dense
}

// paramLayer is implemented by layers carrying trainable parameters.
type paramLayer interface {
	Params() []*Param
}

// glorotInit fills values with Glorot-uniform samples.
func glorotInit(values []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range values {
		values[i] = rng.Float64()*2*limit - limit
	}
}
