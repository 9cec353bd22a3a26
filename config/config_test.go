package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"triz/engine"
	"triz/tree"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, engine.DefaultConfig(), cfg.EngineConfig())
	require.Equal(t, tree.DefaultPrompt, cfg.Simulation.RootPrompt)
	require.Equal(t, "halt", cfg.Policy.OnOracleFailure)
}

func TestLoad(t *testing.T) {
	t.Run("loading the defaults when nothing is set", func(t *testing.T) {
		resetViper(t)

		cfg, err := Load()

		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("reading a yaml config file", func(t *testing.T) {
		resetViper(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := strings.Join([]string{
			"simulation:",
			"  max_depth: 5",
			"  step_delay: 250ms",
			"policy:",
			"  on_oracle_failure: retry",
			"  max_retries: 3",
			"oracle:",
			"  seed: 42",
		}, "\n")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		viper.SetConfigFile(path)
		require.NoError(t, viper.ReadInConfig())

		cfg, err := Load()

		require.NoError(t, err)
		require.Equal(t, 5, cfg.Simulation.MaxDepth)
		require.Equal(t, 250*time.Millisecond, cfg.Simulation.StepDelay)
		require.Equal(t, "retry", cfg.Policy.OnOracleFailure)
		require.Equal(t, 3, cfg.Policy.MaxRetries)
		require.Equal(t, uint64(42), cfg.Oracle.Seed)
		require.Equal(t, 0.4, cfg.Policy.ThinkFraction, "Unset keys should keep their defaults")
	})

	t.Run("overriding from the environment", func(t *testing.T) {
		resetViper(t)
		viper.SetEnvPrefix("TRIZ")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		t.Setenv("TRIZ_SIMULATION_MAX_DEPTH", "7")

		cfg, err := Load()

		require.NoError(t, err)
		require.Equal(t, 7, cfg.Simulation.MaxDepth)
	})

	t.Run("rejecting invalid values", func(t *testing.T) {
		resetViper(t)
		viper.Set("simulation.max_depth", 0)

		cfg, err := Load()

		require.Nil(t, cfg)
		require.ErrorIs(t, err, ErrInvalid)
		require.ErrorIs(t, err, engine.ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	t.Run("collecting every invalid key", func(t *testing.T) {
		cfg := Default()
		cfg.Policy.MaxBatch = 0
		cfg.Policy.ThinkFraction = 1.5
		cfg.Policy.OnOracleFailure = "explode"
		cfg.Logging.Level = "loud"

		err := cfg.Validate()

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		fields := make([]string, len(errs))
		for i, e := range errs {
			fields[i] = e.Field
		}
		require.Equal(t, []string{
			"policy.max_batch",
			"policy.think_fraction",
			"policy.on_oracle_failure",
			"logging.level",
		}, fields)
		require.ErrorIs(t, err, ErrInvalid)
		require.Contains(t, err.Error(), "4 validation errors")
	})

	t.Run("formatting a single error", func(t *testing.T) {
		cfg := Default()
		cfg.Oracle.MaxChildren = 0

		err := cfg.Validate()

		require.EqualError(t, err, "oracle.max_children: must be at least 1 (got: 0)")
	})
}

func TestBatchSeed(t *testing.T) {
	cfg := Default()
	require.Zero(t, cfg.batchSeed(), "Clock seeding should carry over")

	cfg.Oracle.Seed = 3
	require.NotEqual(t, cfg.Oracle.Seed, cfg.batchSeed(), "Batch sizer should not share the oracle stream")
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Simulation.StepDelay = 0
	cfg.Simulation.MaxDepth = 2
	cfg.Simulation.RootPrompt = "Quiet a fan"
	cfg.Oracle.Seed = 3
	options := append(cfg.EngineOptions(), engine.WithLogger(zerolog.Nop()))

	e := engine.New(options...)
	require.Equal(t, "Quiet a fan", e.Tree().Prompt)

	outcome, err := e.Run(context.Background(), cfg.EngineConfig())

	require.NoError(t, err)
	require.Equal(t, engine.OutcomeCompleted, outcome)
	require.Equal(t, 2, e.Stats().MaxLevel)
}
