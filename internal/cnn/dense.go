package cnn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected layer over a 1 × in row vector. Weights are
// stored flat as [out][in].
type Dense struct {
	in  int
	out int

	w *Param
	b *Param

	lastX *mat.Dense
}

// NewDense creates a fully connected layer with Glorot-uniform weights.
func NewDense(name string, in, out int, rng *rand.Rand) *Dense {
	d := &Dense{
		in:  in,
		out: out,
		w:   newParam(name+".weight", out*in),
		b:   newParam(name+".bias", out),
	}
	glorotInit(d.w.Value, in, out, rng)
	return d
}

// Forward computes w·x + b for a 1 × in input row.
func (d *Dense) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	if rows != 1 || cols != d.in {
		panic(fmt.Sprintf("dense %s: input is %dx%d, want 1x%d", d.w.Name, rows, cols, d.in))
	}

	d.lastX = x
	out := mat.NewDense(1, d.out, nil)
	for o := 0; o < d.out; o++ {
		sum := d.b.Value[o]
		for i := 0; i < d.in; i++ {
			sum += d.w.Value[o*d.in+i] * x.At(0, i)
		}
		out.Set(0, o, sum)
	}
	return out
}

// Backward accumulates weight and bias gradients and returns the gradient
// with respect to the input row.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	dx := mat.NewDense(1, d.in, nil)
	for o := 0; o < d.out; o++ {
		g := grad.At(0, o)
		d.b.Grad[o] += g
		for i := 0; i < d.in; i++ {
			d.w.Grad[o*d.in+i] += g * d.lastX.At(0, i)
			dx.Set(0, i, dx.At(0, i)+g*d.w.Value[o*d.in+i])
		}
	}
	return dx
}

// Params returns the weights and biases.
func (d *Dense) Params() []*Param { return []*Param{d.w, d.b} }

// Flatten reshapes channels × length to a single 1 × (channels·length) row.
type Flatten struct {
	inRows int
	inCols int
}

// Forward flattens x row-major.
func (f *Flatten) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	f.inRows = rows
	f.inCols = cols

	out := mat.NewDense(1, rows*cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(0, r*cols+c, x.At(r, c))
		}
	}
	return out
}

// Backward restores the channels × length shape.
func (f *Flatten) Backward(grad *mat.Dense) *mat.Dense {
	dx := mat.NewDense(f.inRows, f.inCols, nil)
	for r := 0; r < f.inRows; r++ {
		for c := 0; c < f.inCols; c++ {
			dx.Set(r, c, grad.At(0, r*f.inCols+c))
		}
	}
	return dx
}
