package cnn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// NetConfig describes the fixed conv-block architecture: five blocks of
// Conv1D + ReLU + MaxPool1D feeding a dense head with dropout and a single
// linear output unit.
type NetConfig struct {
	Filters     []int   `json:"filters"`
	Kernels     []int   `json:"kernels"`
	PoolSize    int     `json:"pool_size"`
	HiddenUnits int     `json:"hidden_units"`
	DropoutRate float64 `json:"dropout_rate"`
	Seed        int64   `json:"seed"`
}

// DefaultNetConfig returns the standard architecture: filters doubling
// 8 to 128 while kernels halve 64 to 4.
func DefaultNetConfig() NetConfig {
	return NetConfig{
		Filters:     []int{8, 16, 32, 64, 128},
		Kernels:     []int{64, 32, 16, 8, 4},
		PoolSize:    2,
		HiddenUnits: 64,
		DropoutRate: 0.2,
		Seed:        1,
	}
}

// Network is a sequential stack of layers mapping a single-channel spectrum
// to one regression output.
type Network struct {
	layers []Layer

	inputWidth int
}

// NewSpectralNet builds the conv architecture for spectra of the given
// width (number of wavelength channels). It fails if the spatial extent
// does not survive all conv/pool blocks.
func NewSpectralNet(inputWidth int, cfg NetConfig) (*Network, error) {
	if inputWidth < 1 {
		return nil, fmt.Errorf("input width must be positive, got %d", inputWidth)
	}
	if len(cfg.Filters) == 0 || len(cfg.Filters) != len(cfg.Kernels) {
		return nil, fmt.Errorf("filters (%d) and kernels (%d) must be non-empty and equal length",
			len(cfg.Filters), len(cfg.Kernels))
	}
	if cfg.PoolSize < 1 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", cfg.PoolSize)
	}
	if cfg.HiddenUnits < 1 {
		return nil, fmt.Errorf("hidden units must be >= 1, got %d", cfg.HiddenUnits)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	net := &Network{inputWidth: inputWidth}

	length := inputWidth
	channels := 1
	for i := range cfg.Filters {
		kernel := cfg.Kernels[i]
		if length < kernel {
			return nil, fmt.Errorf("block %d: spatial extent %d below kernel %d; widen the band or shrink kernels",
				i+1, length, kernel)
		}
		conv := NewConv1D(fmt.Sprintf("conv%d", i+1), channels, cfg.Filters[i], kernel, rng)
		pool := NewMaxPool1D(cfg.PoolSize)

		length = pool.OutLength(conv.OutLength(length))
		if length < 1 {
			return nil, fmt.Errorf("block %d: spatial extent vanished after pooling", i+1)
		}
		channels = cfg.Filters[i]

		net.layers = append(net.layers, conv, &ReLU{}, pool)
	}

	drop, err := NewDropout(cfg.DropoutRate, rng)
	if err != nil {
		return nil, err
	}
	net.layers = append(net.layers,
		&Flatten{},
		NewDense("dense1", channels*length, cfg.HiddenUnits, rng),
		&ReLU{},
		drop,
		NewDense("output", cfg.HiddenUnits, 1, rng),
	)
	return net, nil
}

// NewSequential wraps an explicit layer stack. Used by tests and by callers
// that need a head-only network.
func NewSequential(inputWidth int, layers ...Layer) *Network {
	return &Network{layers: layers, inputWidth: inputWidth}
}

// InputWidth returns the expected spectrum width.
func (n *Network) InputWidth() int { return n.inputWidth }

// Forward runs one sample (1 × width) through the stack.
func (n *Network) Forward(x *mat.Dense, train bool) *mat.Dense {
	out := x
	for _, l := range n.layers {
		out = l.Forward(out, train)
	}
	return out
}

// Backward propagates the output gradient through the stack, accumulating
// parameter gradients.
func (n *Network) Backward(grad *mat.Dense) {
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].Backward(grad)
	}
}

// Params returns all trainable parameters in layer order.
func (n *Network) Params() []*Param {
	var params []*Param
	for _, l := range n.layers {
		if pl, ok := l.(paramLayer); ok {
			params = append(params, pl.Params()...)
		}
	}
	return params
}

// Predict runs every row of x (samples × width) through the network at
// inference and returns the scalar outputs.
func (n *Network) Predict(x *mat.Dense) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != n.inputWidth {
		return nil, fmt.Errorf("input width %d does not match network width %d", cols, n.inputWidth)
	}

	out := make([]float64, rows)
	sample := mat.NewDense(1, cols, nil)
	for r := 0; r < rows; r++ {
		sample.SetRow(0, x.RawRowView(r))
		pred := n.Forward(sample, false)
		out[r] = pred.At(0, 0)
	}
	return out, nil
}
