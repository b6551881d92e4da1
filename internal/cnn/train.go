package cnn

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// TrainConfig holds the training-loop hyperparameters.
type TrainConfig struct {
	Epochs          int     `json:"epochs"`
	BatchSize       int     `json:"batch_size"`
	LearningRate    float64 `json:"learning_rate"`
	PlateauFactor   float64 `json:"plateau_factor"`
	PlateauPatience int     `json:"plateau_patience"`
	MinLR           float64 `json:"min_lr"`
	MinDelta        float64 `json:"min_delta"`
	Seed            int64   `json:"seed"`
}

// DefaultTrainConfig returns the standard schedule: 100 epochs of Adam
// with a halve-on-plateau learning-rate schedule.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:          100,
		BatchSize:       16,
		LearningRate:    1e-3,
		PlateauFactor:   0.5,
		PlateauPatience: 10,
		MinLR:           1e-6,
		MinDelta:        1e-4,
		Seed:            1,
	}
}

// EpochStats records one epoch of training.
type EpochStats struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
	LR        float64
}

// ReduceLROnPlateau lowers the learning rate by Factor when the observed
// loss has not improved by at least MinDelta for Patience epochs in a row.
type ReduceLROnPlateau struct {
	Factor   float64
	Patience int
	MinLR    float64
	MinDelta float64

	best float64
	wait int
}

// NewReduceLROnPlateau creates a scheduler with no observations yet.
func NewReduceLROnPlateau(factor float64, patience int, minLR, minDelta float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		Factor:   factor,
		Patience: patience,
		MinLR:    minLR,
		MinDelta: minDelta,
		best:     math.Inf(1),
	}
}

// Observe feeds one epoch's loss and returns the learning rate to use next.
func (s *ReduceLROnPlateau) Observe(loss, lr float64) float64 {
	if loss < s.best-s.MinDelta {
		s.best = loss
		s.wait = 0
		return lr
	}

	s.wait++
	if s.wait < s.Patience {
		return lr
	}

	s.wait = 0
	lr *= s.Factor
	if lr < s.MinLR {
		lr = s.MinLR
	}
	return lr
}

// Trainer runs the mini-batch loop. OnEpoch, when set, is invoked after
// every epoch with that epoch's stats.
type Trainer struct {
	Net     *Network
	Config  TrainConfig
	OnEpoch func(EpochStats)
}

// NewTrainer pairs a network with a training configuration.
func NewTrainer(net *Network, cfg TrainConfig) *Trainer {
	return &Trainer{Net: net, Config: cfg}
}

// Fit trains the network on trainX/trainY, evaluating on valX/valY each
// epoch to drive the plateau schedule. It returns per-epoch stats. A
// cancelled context stops training between epochs and returns the stats
// collected so far along with the context error.
func (t *Trainer) Fit(ctx context.Context, trainX *mat.Dense, trainY []float64, valX *mat.Dense, valY []float64) ([]EpochStats, error) {
	rows, cols := trainX.Dims()
	if rows != len(trainY) {
		return nil, fmt.Errorf("training rows (%d) and targets (%d) differ", rows, len(trainY))
	}
	if cols != t.Net.InputWidth() {
		return nil, fmt.Errorf("training width %d does not match network width %d", cols, t.Net.InputWidth())
	}
	if valRows, _ := valX.Dims(); valRows != len(valY) {
		return nil, fmt.Errorf("validation rows (%d) and targets (%d) differ", valRows, len(valY))
	}
	cfg := t.Config
	if cfg.Epochs < 1 || cfg.BatchSize < 1 {
		return nil, fmt.Errorf("epochs (%d) and batch size (%d) must be positive", cfg.Epochs, cfg.BatchSize)
	}

	var loss MSELoss
	opt := NewAdam(cfg.LearningRate)
	sched := NewReduceLROnPlateau(cfg.PlateauFactor, cfg.PlateauPatience, cfg.MinLR, cfg.MinDelta)
	rng := rand.New(rand.NewSource(cfg.Seed))
	params := t.Net.Params()

	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}

	sample := mat.NewDense(1, cols, nil)
	stats := make([]EpochStats, 0, cfg.Epochs)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rng.Shuffle(rows, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		var epochLoss float64
		for start := 0; start < rows; start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > rows {
				end = rows
			}
			batch := idx[start:end]
			scale := 1 / float64(len(batch))

			for _, i := range batch {
				sample.SetRow(0, trainX.RawRowView(i))
				pred := t.Net.Forward(sample, true)

				p := []float64{pred.At(0, 0)}
				w := []float64{trainY[i]}
				epochLoss += loss.Loss(p, w)

				g := loss.Grad(p, w)
				t.Net.Backward(mat.NewDense(1, 1, []float64{g[0] * scale}))
			}
			opt.Step(params)
		}

		valLoss, err := t.evaluate(valX, valY)
		if err != nil {
			return stats, err
		}

		es := EpochStats{
			Epoch:     epoch,
			TrainLoss: epochLoss / float64(rows),
			ValLoss:   valLoss,
			LR:        opt.LR,
		}
		stats = append(stats, es)
		if t.OnEpoch != nil {
			t.OnEpoch(es)
		}

		opt.LR = sched.Observe(valLoss, opt.LR)
	}
	return stats, nil
}

// evaluate computes mean squared error over a held-out set at inference.
func (t *Trainer) evaluate(x *mat.Dense, y []float64) (float64, error) {
	preds, err := t.Net.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(preds) == 0 {
		return 0, fmt.Errorf("evaluation set is empty")
	}

	var loss MSELoss
	var sum float64
	for i := range preds {
		sum += loss.Loss([]float64{preds[i]}, []float64{y[i]})
	}
	return sum / float64(len(preds)), nil
}
