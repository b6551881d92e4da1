package cnn

// MSELoss is mean squared error over the output units.
type MSELoss struct{}

// Loss returns mean((pred-want)^2).
func (MSELoss) Loss(pred, want []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - want[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

// Grad returns dLoss/dPred: 2*(pred-want)/n.
func (MSELoss) Grad(pred, want []float64) []float64 {
	n := float64(len(pred))
	out := make([]float64, len(pred))
	for i := range pred {
		out[i] = 2 * (pred[i] - want[i]) / n
	}
	return out
}
