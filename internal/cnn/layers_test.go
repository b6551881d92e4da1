package cnn

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// weightedSum gives a scalar objective with a known output gradient so layer
// backprop can be checked against central differences.
func weightedSum(out *mat.Dense, coef *mat.Dense) float64 {
	rows, cols := out.Dims()
	var sum float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sum += out.At(r, c) * coef.At(r, c)
		}
	}
	return sum
}

func randDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, rng.NormFloat64())
		}
	}
	return m
}

func TestConv1DGradientCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	conv := NewConv1D("conv", 2, 3, 3, rng)
	x := randDense(2, 6, rng)
	coef := randDense(3, 4, rng)

	objective := func() float64 { return weightedSum(conv.Forward(x, true), coef) }

	conv.Forward(x, true)
	dx := conv.Backward(coef)

	const h = 1e-6
	for _, p := range conv.Params() {
		for i := range p.Value {
			orig := p.Value[i]
			p.Value[i] = orig + h
			fp := objective()
			p.Value[i] = orig - h
			fm := objective()
			p.Value[i] = orig

			want := (fp - fm) / (2 * h)
			if math.Abs(p.Grad[i]-want) > 1e-5 {
				t.Errorf("%s grad[%d] = %v, numerical %v", p.Name, i, p.Grad[i], want)
			}
		}
	}

	rows, cols := x.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			orig := x.At(r, c)
			x.Set(r, c, orig+h)
			fp := objective()
			x.Set(r, c, orig-h)
			fm := objective()
			x.Set(r, c, orig)

			want := (fp - fm) / (2 * h)
			if math.Abs(dx.At(r, c)-want) > 1e-5 {
				t.Errorf("dx[%d][%d] = %v, numerical %v", r, c, dx.At(r, c), want)
			}
		}
	}
}

func TestDenseGradientCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	dense := NewDense("dense", 5, 3, rng)
	x := randDense(1, 5, rng)
	coef := randDense(1, 3, rng)

	objective := func() float64 { return weightedSum(dense.Forward(x, true), coef) }

	dense.Forward(x, true)
	dx := dense.Backward(coef)

	const h = 1e-6
	for _, p := range dense.Params() {
		for i := range p.Value {
			orig := p.Value[i]
			p.Value[i] = orig + h
			fp := objective()
			p.Value[i] = orig - h
			fm := objective()
			p.Value[i] = orig

			want := (fp - fm) / (2 * h)
			if math.Abs(p.Grad[i]-want) > 1e-5 {
				t.Errorf("%s grad[%d] = %v, numerical %v", p.Name, i, p.Grad[i], want)
			}
		}
	}

	for c := 0; c < 5; c++ {
		orig := x.At(0, c)
		x.Set(0, c, orig+h)
		fp := objective()
		x.Set(0, c, orig-h)
		fm := objective()
		x.Set(0, c, orig)

		want := (fp - fm) / (2 * h)
		if math.Abs(dx.At(0, c)-want) > 1e-5 {
			t.Errorf("dx[0][%d] = %v, numerical %v", c, dx.At(0, c), want)
		}
	}
}

func TestMaxPool1D(t *testing.T) {
	pool := NewMaxPool1D(2)
	x := mat.NewDense(1, 5, []float64{3, 1, 2, 7, 5}) // trailing 5 dropped

	out := pool.Forward(x, true)
	if _, cols := out.Dims(); cols != 2 {
		t.Fatalf("pooled length = %d, want 2", cols)
	}
	if out.At(0, 0) != 3 || out.At(0, 1) != 7 {
		t.Errorf("pooled = [%v %v], want [3 7]", out.At(0, 0), out.At(0, 1))
	}

	dx := pool.Backward(mat.NewDense(1, 2, []float64{10, 20}))
	want := []float64{10, 0, 0, 20, 0}
	for i, w := range want {
		if dx.At(0, i) != w {
			t.Errorf("dx[0][%d] = %v, want %v", i, dx.At(0, i), w)
		}
	}
}

func TestReLU(t *testing.T) {
	relu := &ReLU{}
	x := mat.NewDense(1, 4, []float64{-1, 0, 2, -3})

	out := relu.Forward(x, true)
	wantOut := []float64{0, 0, 2, 0}
	for i, w := range wantOut {
		if out.At(0, i) != w {
			t.Errorf("out[0][%d] = %v, want %v", i, out.At(0, i), w)
		}
	}

	dx := relu.Backward(mat.NewDense(1, 4, []float64{5, 5, 5, 5}))
	wantDx := []float64{0, 0, 5, 0}
	for i, w := range wantDx {
		if dx.At(0, i) != w {
			t.Errorf("dx[0][%d] = %v, want %v", i, dx.At(0, i), w)
		}
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	f := &Flatten{}
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	out := f.Forward(x, true)
	if rows, cols := out.Dims(); rows != 1 || cols != 6 {
		t.Fatalf("flattened dims = %dx%d, want 1x6", rows, cols)
	}
	if out.At(0, 4) != 5 {
		t.Errorf("out[0][4] = %v, want 5", out.At(0, 4))
	}

	dx := f.Backward(out)
	if rows, cols := dx.Dims(); rows != 2 || cols != 3 {
		t.Fatalf("restored dims = %dx%d, want 2x3", rows, cols)
	}
	if dx.At(1, 1) != 5 {
		t.Errorf("dx[1][1] = %v, want 5", dx.At(1, 1))
	}
}

func TestDropoutIdentityAtInference(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	drop, err := NewDropout(0.5, rng)
	if err != nil {
		t.Fatalf("NewDropout: %v", err)
	}

	x := randDense(1, 16, rng)
	out := drop.Forward(x, false)
	for c := 0; c < 16; c++ {
		if out.At(0, c) != x.At(0, c) {
			t.Errorf("inference dropout changed value at %d", c)
		}
	}
}

func TestDropoutMasksAndScales(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	drop, err := NewDropout(0.5, rng)
	if err != nil {
		t.Fatalf("NewDropout: %v", err)
	}

	x := mat.NewDense(1, 64, nil)
	for c := 0; c < 64; c++ {
		x.Set(0, c, 1)
	}

	out := drop.Forward(x, true)
	var zeros, scaled int
	for c := 0; c < 64; c++ {
		switch out.At(0, c) {
		case 0:
			zeros++
		case 2: // 1/(1-0.5)
			scaled++
		default:
			t.Fatalf("out[0][%d] = %v, want 0 or 2", c, out.At(0, c))
		}
	}
	if zeros == 0 || scaled == 0 {
		t.Errorf("mask degenerate: %d zeroed, %d kept", zeros, scaled)
	}

	// Backward must use the identical mask.
	dx := drop.Backward(out)
	for c := 0; c < 64; c++ {
		if out.At(0, c) == 0 && dx.At(0, c) != 0 {
			t.Errorf("gradient leaked through dropped unit %d", c)
		}
	}
}

func TestNewDropoutRejectsBadRate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewDropout(1.0, rng); err == nil {
		t.Error("rate 1.0 accepted, want error")
	}
	if _, err := NewDropout(-0.1, rng); err == nil {
		t.Error("negative rate accepted, want error")
	}
}
