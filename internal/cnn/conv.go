package cnn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Conv1D is a 1D convolution with valid padding and stride 1. Weights are
// stored flat as [out][in][k].
type Conv1D struct {
	inChannels  int
	outChannels int
	kernel      int

	w *Param
	b *Param

	lastX *mat.Dense
}

// NewConv1D creates a convolution layer with Glorot-uniform weights.
func NewConv1D(name string, inChannels, outChannels, kernel int, rng *rand.Rand) *Conv1D {
	c := &Conv1D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernel:      kernel,
		w:           newParam(name+".weight", outChannels*inChannels*kernel),
		b:           newParam(name+".bias", outChannels),
	}
	glorotInit(c.w.Value, inChannels*kernel, outChannels*kernel, rng)
	return c
}

// OutLength returns the spatial extent of the output for an input of length l.
func (c *Conv1D) OutLength(l int) int { return l - c.kernel + 1 }

func (c *Conv1D) wAt(out, in, k int) float64 {
	return c.w.Value[(out*c.inChannels+in)*c.kernel+k]
}

// Forward computes the cross-correlation of x (inChannels × length) with the
// layer kernels, producing outChannels × (length-kernel+1).
func (c *Conv1D) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	if rows != c.inChannels {
		panic(fmt.Sprintf("conv %s: input has %d channels, want %d", c.w.Name, rows, c.inChannels))
	}
	outLen := c.OutLength(cols)
	if outLen < 1 {
		panic(fmt.Sprintf("conv %s: input length %d below kernel %d", c.w.Name, cols, c.kernel))
	}

	c.lastX = x
	out := mat.NewDense(c.outChannels, outLen, nil)
	for o := 0; o < c.outChannels; o++ {
		bias := c.b.Value[o]
		for t := 0; t < outLen; t++ {
			sum := bias
			for ci := 0; ci < c.inChannels; ci++ {
				for k := 0; k < c.kernel; k++ {
					sum += c.wAt(o, ci, k) * x.At(ci, t+k)
				}
			}
			out.Set(o, t, sum)
		}
	}
	return out
}

// Backward accumulates weight and bias gradients and returns the gradient
// with respect to the input of the last Forward call.
func (c *Conv1D) Backward(grad *mat.Dense) *mat.Dense {
	_, inLen := c.lastX.Dims()
	_, outLen := grad.Dims()

	dx := mat.NewDense(c.inChannels, inLen, nil)
	for o := 0; o < c.outChannels; o++ {
		for t := 0; t < outLen; t++ {
			g := grad.At(o, t)
			if g == 0 {
				continue
			}
			c.b.Grad[o] += g
			for ci := 0; ci < c.inChannels; ci++ {
				for k := 0; k < c.kernel; k++ {
					idx := (o*c.inChannels+ci)*c.kernel + k
					c.w.Grad[idx] += g * c.lastX.At(ci, t+k)
					dx.Set(ci, t+k, dx.At(ci, t+k)+g*c.w.Value[idx])
				}
			}
		}
	}
	return dx
}

// Params returns the kernel weights and biases.
func (c *Conv1D) Params() []*Param { return []*Param{c.w, c.b} }
