package cnn

import (
	"encoding/json"
	"fmt"
	"os"
)

// SnapshotVersion identifies the weights file format.
const SnapshotVersion = "weights.v1"

type snapshot struct {
	Version string          `json:"version"`
	Width   int             `json:"input_width"`
	Params  []paramSnapshot `json:"params"`
}

type paramSnapshot struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// SaveWeights writes all trainable parameters to path as versioned JSON.
func (n *Network) SaveWeights(path string) error {
	snap := snapshot{Version: SnapshotVersion, Width: n.inputWidth}
	for _, p := range n.Params() {
		values := make([]float64, len(p.Value))
		copy(values, p.Value)
		snap.Params = append(snap.Params, paramSnapshot{Name: p.Name, Values: values})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

// LoadWeights restores parameters saved by SaveWeights. The network must
// have been built with the same architecture and input width.
func (n *Network) LoadWeights(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode weights: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("unsupported weights version %q, want %q", snap.Version, SnapshotVersion)
	}
	if snap.Width != n.inputWidth {
		return fmt.Errorf("weights were trained for width %d, network has %d", snap.Width, n.inputWidth)
	}

	params := n.Params()
	if len(params) != len(snap.Params) {
		return fmt.Errorf("weights hold %d tensors, network has %d", len(snap.Params), len(params))
	}
	for i, p := range params {
		rec := snap.Params[i]
		if rec.Name != p.Name {
			return fmt.Errorf("tensor %d is %q, want %q", i, rec.Name, p.Name)
		}
		if len(rec.Values) != len(p.Value) {
			return fmt.Errorf("tensor %q has %d values, want %d", rec.Name, len(rec.Values), len(p.Value))
		}
		copy(p.Value, rec.Values)
	}
	return nil
}
