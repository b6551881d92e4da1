// Package rundb persists training runs and their per-epoch metrics in an
// embedded sqlite database so experiments can be compared after the fact.
package rundb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
)

// DB wraps the sqlite experiment store.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path. Use ":memory:" for
// an ephemeral store. Call Migrate before first use.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping run database: %w", err)
	}
	return &DB{db}, nil
}

// Run is one training run with its final held-out metrics.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Config     string // pipeline config as JSON
	TestRMSE   sql.NullFloat64
	TestMAE    sql.NullFloat64
	TestR2     sql.NullFloat64
}

// EpochRecord is one stored epoch of a run.
type EpochRecord struct {
	RunID        string
	Epoch        int
	TrainLoss    float64
	ValLoss      float64
	LearningRate float64
}

// CreateRun inserts a new run with the given config JSON and returns its ID.
func (db *DB) CreateRun(configJSON string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (run_id, started_at, config) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// RecordEpoch stores one epoch of training stats for a run.
func (db *DB) RecordEpoch(runID string, es cnn.EpochStats) error {
	_, err := db.Exec(
		`INSERT INTO epochs (run_id, epoch, train_loss, val_loss, learning_rate)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, es.Epoch, es.TrainLoss, es.ValLoss, es.LR,
	)
	if err != nil {
		return fmt.Errorf("failed to record epoch %d: %w", es.Epoch, err)
	}
	return nil
}

// FinishRun stamps the run's end time and final held-out metrics.
func (db *DB) FinishRun(runID string, rmse, mae, r2 float64) error {
	res, err := db.Exec(
		`UPDATE runs SET finished_at = ?, test_rmse = ?, test_mae = ?, test_r2 = ? WHERE run_id = ?`,
		time.Now().UTC(), rmse, mae, r2, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun returns one run by ID.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(
		`SELECT run_id, started_at, finished_at, config, test_rmse, test_mae, test_r2
		 FROM runs WHERE run_id = ?`, runID,
	)
	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Config, &r.TestRMSE, &r.TestMAE, &r.TestR2); err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(
		`SELECT run_id, started_at, finished_at, config, test_rmse, test_mae, test_r2
		 FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Config, &r.TestRMSE, &r.TestMAE, &r.TestR2); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEpochs returns a run's stored epochs in order.
func (db *DB) RunEpochs(runID string) ([]EpochRecord, error) {
	rows, err := db.Query(
		`SELECT run_id, epoch, train_loss, val_loss, learning_rate
		 FROM epochs WHERE run_id = ? ORDER BY epoch`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load epochs for run %s: %w", runID, err)
	}
	defer rows.Close()

	var epochs []EpochRecord
	for rows.Next() {
		var e EpochRecord
		if err := rows.Scan(&e.RunID, &e.Epoch, &e.TrainLoss, &e.ValLoss, &e.LearningRate); err != nil {
			return nil, err
		}
		epochs = append(epochs, e)
	}
	return epochs, rows.Err()
}
