package cnn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

func checkLengths(yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return fmt.Errorf("no samples")
	}
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("yTrue has %d samples, yPred %d", len(yTrue), len(yPred))
	}
	return nil
}

// RMSE returns the root-mean-squared error between targets and predictions.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue))), nil
}

// MAE returns the mean absolute error between targets and predictions.
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yPred[i] - yTrue[i])
	}
	return sum / float64(len(yTrue)), nil
}

// R2 returns the coefficient of determination. A model predicting the mean
// scores 0; a perfect model scores 1.
func R2(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}

	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot float64
	for i := range yTrue {
		r := yTrue[i] - yPred[i]
		d := yTrue[i] - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0, fmt.Errorf("targets have zero variance")
	}
	return 1 - ssRes/ssTot, nil
}
