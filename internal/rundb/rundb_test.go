package rundb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp("../../migrations"))
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.MigrateUp("../../migrations"))

	version, dirty, err := db.MigrateVersion("../../migrations")
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateRun(`{"epochs":100}`)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	for epoch := 1; epoch <= 3; epoch++ {
		err := db.RecordEpoch(id, cnn.EpochStats{
			Epoch:     epoch,
			TrainLoss: 1.0 / float64(epoch),
			ValLoss:   1.5 / float64(epoch),
			LR:        1e-3,
		})
		require.NoError(t, err)
	}

	require.NoError(t, db.FinishRun(id, 0.42, 0.33, 0.91))

	run, err := db.GetRun(id)
	require.NoError(t, err)
	require.Equal(t, `{"epochs":100}`, run.Config)
	require.True(t, run.FinishedAt.Valid)
	require.Equal(t, 0.42, run.TestRMSE.Float64)
	require.Equal(t, 0.33, run.TestMAE.Float64)
	require.Equal(t, 0.91, run.TestR2.Float64)

	epochs, err := db.RunEpochs(id)
	require.NoError(t, err)
	require.Len(t, epochs, 3)
	for i, e := range epochs {
		require.Equal(t, i+1, e.Epoch)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	db := openTestDB(t)
	require.Error(t, db.FinishRun("no-such-run", 0, 0, 0))
}

func TestRecordEpochDuplicate(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateRun(`{}`)
	require.NoError(t, err)

	es := cnn.EpochStats{Epoch: 1, TrainLoss: 0.5, ValLoss: 0.6, LR: 1e-3}
	require.NoError(t, db.RecordEpoch(id, es))
	require.Error(t, db.RecordEpoch(id, es), "duplicate epoch must violate the primary key")
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	first, err := db.CreateRun(`{"n":1}`)
	require.NoError(t, err)
	second, err := db.CreateRun(`{"n":2}`)
	require.NoError(t, err)

	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	require.Contains(t, ids, first)
	require.Contains(t, ids, second)
}
