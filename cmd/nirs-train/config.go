package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
	"github.com/vapodymov/1D-CNN-Improvement/internal/spectra"
)

// Config is the pipeline configuration. Fields omitted from the JSON file
// keep their defaults, so partial configs are safe.
type Config struct {
	TrainFiles []string `json:"train_files"`
	ValFiles   []string `json:"val_files"`
	TestFiles  []string `json:"test_files"`

	Band         spectra.Band `json:"band"`
	TargetColumn string       `json:"target_column"`

	BetaShift      float64 `json:"betashift"`
	SlopeShift     float64 `json:"slopeshift"`
	MultiShift     float64 `json:"multishift"`
	AugmentRepeats int     `json:"augment_repeats"`
	AugmentSeed    int64   `json:"augment_seed"`

	Net   cnn.NetConfig   `json:"net"`
	Train cnn.TrainConfig `json:"train"`
}

// DefaultConfig describes the standard experiment: six spectral tables, a
// ten-fold augmentation with small shifts, and the fixed conv stack.
func DefaultConfig() Config {
	return Config{
		TrainFiles: []string{"data/calibrate_1.csv", "data/calibrate_2.csv"},
		ValFiles:   []string{"data/validate_1.csv", "data/validate_2.csv"},
		TestFiles:  []string{"data/test_1.csv", "data/test_2.csv"},

		Band:         spectra.Band{Lo: 1100, Hi: 2498},
		TargetColumn: "Protein",

		BetaShift:      0.1,
		SlopeShift:     0.1,
		MultiShift:     0.1,
		AugmentRepeats: 10,
		AugmentSeed:    1,

		Net:   cnn.DefaultNetConfig(),
		Train: cnn.DefaultTrainConfig(),
	}
}

// LoadConfig reads a JSON pipeline config, applying it over the defaults.
// The file must have a .json extension and stay under the size limit.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run.
func (c *Config) Validate() error {
	if len(c.TrainFiles) == 0 || len(c.ValFiles) == 0 || len(c.TestFiles) == 0 {
		return fmt.Errorf("train, validation and test file lists must all be non-empty")
	}
	if c.TargetColumn == "" {
		return fmt.Errorf("target column is required")
	}
	if c.Band.Hi < c.Band.Lo {
		return fmt.Errorf("band hi %.1f below lo %.1f", c.Band.Hi, c.Band.Lo)
	}
	if c.AugmentRepeats < 1 {
		return fmt.Errorf("augment repeats must be >= 1, got %d", c.AugmentRepeats)
	}
	if c.BetaShift < 0 || c.SlopeShift < 0 || c.MultiShift < 0 {
		return fmt.Errorf("augmentation shifts must be non-negative")
	}
	if c.Train.Epochs < 1 || c.Train.BatchSize < 1 {
		return fmt.Errorf("epochs (%d) and batch size (%d) must be positive",
			c.Train.Epochs, c.Train.BatchSize)
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", c.Train.LearningRate)
	}
	return nil
}
