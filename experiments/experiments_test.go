package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"triz/engine"
)

func TestConfigs(t *testing.T) {
	sweep := SweepConfig{MaxDepths: []int{2, 3}, MaxBatches: []int{1, 2}, Runs: 4}

	configs := sweep.Configs()

	require.Len(t, configs, 4)
	require.Equal(t, 1, configs[0].ID)
	require.Equal(t, 2, configs[1].MaxBatch)
	require.Equal(t, 3, configs[2].MaxDepth)
	require.Equal(t, 4, configs[3].Runs)
}

func TestRunSweep(t *testing.T) {
	t.Run("recording every run of the grid", func(t *testing.T) {
		sweep := SweepConfig{
			Name:        "test",
			RecordsDir:  t.TempDir(),
			MaxDepths:   []int{1, 2},
			MaxBatches:  []int{2},
			Runs:        3,
			MaxChildren: 2,
			Seed:        5,
		}

		records, err := RunSweep(context.Background(), sweep)

		require.NoError(t, err)
		require.Len(t, records, 6)
		for i, record := range records {
			require.Equal(t, i+1, record.ID)
			require.Equal(t, "completed", record.Outcome)
			require.Positive(t, record.Ticks)
			require.Positive(t, record.Generated)
		}
		require.Equal(t, 1, records[0].Config)
		require.Equal(t, 2, records[5].Config)
		require.Equal(t, 1, records[0].Ticks, "Max depth 1 expands the root only")

		dirs, err := filepath.Glob(filepath.Join(sweep.RecordsDir, "test", "*"))
		require.NoError(t, err)
		require.Len(t, dirs, 1)
		for _, file := range []string{"sweep_configs.csv", "run_records.csv", "tick_records.csv"} {
			require.FileExists(t, filepath.Join(dirs[0], file))
		}

		f, err := os.Open(filepath.Join(dirs[0], "run_records.csv"))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 7, "Header plus one row per run")
	})

	t.Run("rejecting an empty grid", func(t *testing.T) {
		_, err := RunSweep(context.Background(), SweepConfig{Name: "empty", Runs: 1})

		require.ErrorIs(t, err, engine.ErrInvalidConfig)
	})

	t.Run("stopping when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		records, err := RunSweep(ctx, DefaultSweep())

		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, records)
	})
}
