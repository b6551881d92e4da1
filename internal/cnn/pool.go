package cnn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxPool1D downsamples each channel by taking the maximum over
// non-overlapping windows of size Pool. Trailing positions that do not fill
// a window are dropped.
type MaxPool1D struct {
	Pool int

	inCols int
	argmax [][]int // per channel, source column of each pooled maximum
}

// NewMaxPool1D creates a pooling layer with the given window size.
func NewMaxPool1D(pool int) *MaxPool1D {
	return &MaxPool1D{Pool: pool}
}

// OutLength returns the pooled length for an input of length l.
func (p *MaxPool1D) OutLength(l int) int { return l / p.Pool }

// Forward pools x (channels × length) to channels × (length/Pool).
func (p *MaxPool1D) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	outLen := p.OutLength(cols)

	p.inCols = cols
	p.argmax = make([][]int, rows)

	out := mat.NewDense(rows, outLen, nil)
	for c := 0; c < rows; c++ {
		p.argmax[c] = make([]int, outLen)
		for t := 0; t < outLen; t++ {
			best := math.Inf(-1)
			bestIdx := t * p.Pool
			for k := 0; k < p.Pool; k++ {
				src := t*p.Pool + k
				if v := x.At(c, src); v > best {
					best = v
					bestIdx = src
				}
			}
			out.Set(c, t, best)
			p.argmax[c][t] = bestIdx
		}
	}
	return out
}

// Backward routes gradients to the positions that produced each maximum.
func (p *MaxPool1D) Backward(grad *mat.Dense) *mat.Dense {
	rows, outLen := grad.Dims()

	dx := mat.NewDense(rows, p.inCols, nil)
	for c := 0; c < rows; c++ {
		for t := 0; t < outLen; t++ {
			src := p.argmax[c][t]
			dx.Set(c, src, dx.At(c, src)+grad.At(c, t))
		}
	}
	return dx
}
