package preprocess

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Augmenter expands a training set by replicating rows and applying a
// randomized affine perturbation to each replica: a per-row additive offset
// (BetaShift), a linear tilt across the channel axis (SlopeShift) and a
// multiplicative scale (MultiShift). With all three shifts at zero the
// transform is the identity.
type Augmenter struct {
	BetaShift  float64
	SlopeShift float64
	MultiShift float64

	rng *rand.Rand
}

// NewAugmenter creates a seeded augmenter. The same seed yields the same
// augmented output for the same input.
func NewAugmenter(betashift, slopeshift, multishift float64, seed int64) *Augmenter {
	return &Augmenter{
		BetaShift:  betashift,
		SlopeShift: slopeshift,
		MultiShift: multishift,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Augment returns a matrix with each row of x repeated `repeats` times
// consecutively, every replica perturbed independently. For output row r and
// channel j (axis = j/channels):
//
//	out = multi*x + slope*axis + beta - axis - slope/2 + 1/2
//
// with beta in [-BetaShift, +BetaShift), slope in [1-SlopeShift,
// 1+SlopeShift) and multi in [1-MultiShift, 1+MultiShift).
func (a *Augmenter) Augment(x *mat.Dense, repeats int) (*mat.Dense, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("repeats must be >= 1, got %d", repeats)
	}

	rows, cols := x.Dims()
	out := mat.NewDense(rows*repeats, cols, nil)

	for r := 0; r < rows; r++ {
		for rep := 0; rep < repeats; rep++ {
			beta := a.rng.Float64()*2*a.BetaShift - a.BetaShift
			slope := a.rng.Float64()*2*a.SlopeShift - a.SlopeShift + 1
			multi := a.rng.Float64()*2*a.MultiShift - a.MultiShift + 1

			dst := r*repeats + rep
			for j := 0; j < cols; j++ {
				axis := float64(j) / float64(cols)
				offset := slope*axis + beta - axis - slope/2 + 0.5
				out.Set(dst, j, multi*x.At(r, j)+offset)
			}
		}
	}
	return out, nil
}

// RepeatTargets repeats each target value `repeats` times consecutively,
// matching the row order produced by Augment.
func RepeatTargets(y []float64, repeats int) []float64 {
	out := make([]float64, 0, len(y)*repeats)
	for _, v := range y {
		for rep := 0; rep < repeats; rep++ {
			out = append(out, v)
		}
	}
	return out
}
