package preprocess

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func TestAugmentIdentityAtZeroShifts(t *testing.T) {
	x := mat.NewDense(2, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		0.5, 0.6, 0.7, 0.8,
	})

	a := NewAugmenter(0, 0, 0, 42)
	out, err := a.Augment(x, 1)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}

	rows, cols := x.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if math.Abs(out.At(r, c)-x.At(r, c)) > 1e-15 {
				t.Errorf("out[%d][%d] = %v, want identity %v", r, c, out.At(r, c), x.At(r, c))
			}
		}
	}
}

func TestAugmentReplicationFactor(t *testing.T) {
	x := mat.NewDense(3, 5, nil)

	a := NewAugmenter(0.1, 0.1, 0.1, 1)
	out, err := a.Augment(x, 10)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}

	rows, cols := out.Dims()
	if rows != 30 || cols != 5 {
		t.Errorf("dims = %dx%d, want 30x5", rows, cols)
	}
}

func TestAugmentDeterministicUnderSeed(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	out1, err := NewAugmenter(0.1, 0.2, 0.05, 7).Augment(x, 4)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	out2, err := NewAugmenter(0.1, 0.2, 0.05, 7).Augment(x, 4)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}

	if diff := cmp.Diff(out1.RawMatrix().Data, out2.RawMatrix().Data); diff != "" {
		t.Errorf("same seed produced different output (-first +second):\n%s", diff)
	}

	out3, err := NewAugmenter(0.1, 0.2, 0.05, 8).Augment(x, 4)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if cmp.Equal(out1.RawMatrix().Data, out3.RawMatrix().Data) {
		t.Error("different seeds produced identical output")
	}
}

// Offset-only augmentation shifts every channel of a row by the same bounded
// constant, so the per-row perturbation must stay within the beta bound.
func TestAugmentOffsetBounded(t *testing.T) {
	const beta = 0.1
	x := mat.NewDense(5, 8, nil) // zero spectra isolate the offset term

	a := NewAugmenter(beta, 0, 0, 3)
	out, err := a.Augment(x, 10)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}

	rows, cols := out.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := out.At(r, c); math.Abs(v) > beta {
				t.Fatalf("out[%d][%d] = %v, exceeds beta bound %v", r, c, v, beta)
			}
		}
	}
}

func TestAugmentRejectsBadRepeats(t *testing.T) {
	a := NewAugmenter(0, 0, 0, 1)
	if _, err := a.Augment(mat.NewDense(1, 1, nil), 0); err == nil {
		t.Error("Augment with repeats=0 succeeded, want error")
	}
}

func TestRepeatTargets(t *testing.T) {
	got := RepeatTargets([]float64{1, 2}, 3)
	want := []float64{1, 1, 1, 2, 2, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RepeatTargets mismatch (-want +got):\n%s", diff)
	}
}
