package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"triz/engine"
	"triz/oracle"
	"triz/searcher"
	"triz/tree"
)

// Config is the complete file/env/flag configuration of the triz CLI.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// SimulationConfig holds the operator-facing run parameters
type SimulationConfig struct {
	MaxDepth   int           `mapstructure:"max_depth"`
	StepDelay  time.Duration `mapstructure:"step_delay"`
	RootPrompt string        `mapstructure:"root_prompt"`
}

// PolicyConfig controls batching, pacing and failure handling
type PolicyConfig struct {
	// MaxBatch is the upper bound of the random batch size in the backfill regime
	MaxBatch         int     `mapstructure:"max_batch"`
	TransmitFraction float64 `mapstructure:"transmit_fraction"`
	ThinkFraction    float64 `mapstructure:"think_fraction"`
	GenerateFraction float64 `mapstructure:"generate_fraction"`
	// OnOracleFailure is one of "halt" or "retry"
	OnOracleFailure string        `mapstructure:"on_oracle_failure"`
	MaxRetries      int           `mapstructure:"max_retries"`
	TickYield       time.Duration `mapstructure:"tick_yield"`
}

type OracleConfig struct {
	MaxChildren int `mapstructure:"max_children"`
	// Seed drives the oracle; the batch sizer gets a seed derived from it. 0 seeds from the clock
	Seed uint64 `mapstructure:"seed"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	// Addr serves Prometheus metrics when set, e.g. ":9090"
	Addr       string `mapstructure:"addr"`
	RecordsDir string `mapstructure:"records_dir"`
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			MaxDepth:   engine.DefaultMaxDepth,
			StepDelay:  engine.DefaultStepDelay,
			RootPrompt: tree.DefaultPrompt,
		},
		Policy: PolicyConfig{
			MaxBatch:         searcher.DefaultMaxBatch,
			TransmitFraction: engine.DefaultPacing.Transmit,
			ThinkFraction:    engine.DefaultPacing.Think,
			GenerateFraction: engine.DefaultPacing.Generate,
			OnOracleFailure:  engine.HaltOnFailure.String(),
			MaxRetries:       1,
		},
		Oracle: OracleConfig{
			MaxChildren: oracle.DefaultMaxChildren,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Metrics: MetricsConfig{
			RecordsDir: "experiments",
		},
	}
}

// SetDefaults registers every default with viper so that unset keys,
// env variables and bound flags all resolve.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("simulation.max_depth", defaults.Simulation.MaxDepth)
	viper.SetDefault("simulation.step_delay", defaults.Simulation.StepDelay)
	viper.SetDefault("simulation.root_prompt", defaults.Simulation.RootPrompt)

	viper.SetDefault("policy.max_batch", defaults.Policy.MaxBatch)
	viper.SetDefault("policy.transmit_fraction", defaults.Policy.TransmitFraction)
	viper.SetDefault("policy.think_fraction", defaults.Policy.ThinkFraction)
	viper.SetDefault("policy.generate_fraction", defaults.Policy.GenerateFraction)
	viper.SetDefault("policy.on_oracle_failure", defaults.Policy.OnOracleFailure)
	viper.SetDefault("policy.max_retries", defaults.Policy.MaxRetries)
	viper.SetDefault("policy.tick_yield", defaults.Policy.TickYield)

	viper.SetDefault("oracle.max_children", defaults.Oracle.MaxChildren)
	viper.SetDefault("oracle.seed", defaults.Oracle.Seed)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.pretty", defaults.Logging.Pretty)

	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)
	viper.SetDefault("metrics.records_dir", defaults.Metrics.RecordsDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dir returns the directory searched for config.yaml
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "triz")
}

func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		MaxDepth:  c.Simulation.MaxDepth,
		StepDelay: c.Simulation.StepDelay,
	}
}

func (c *Config) OracleOptions() []oracle.Option {
	return []oracle.Option{
		oracle.WithSeed(c.Oracle.Seed),
		oracle.WithMaxChildren(c.Oracle.MaxChildren),
	}
}

// EngineOptions wires the random oracle and batch sizer. Validate must have
// passed; an unknown failure mode falls back to halting.
func (c *Config) EngineOptions() []engine.Option {
	mode, _ := engine.ParseFailureMode(c.Policy.OnOracleFailure)

	return []engine.Option{
		engine.WithOracle(oracle.NewRandom(c.OracleOptions()...)),
		engine.WithBatchSizer(searcher.NewRandomBatch(c.Policy.MaxBatch, c.batchSeed())),
		engine.WithPacing(engine.Pacing{
			Transmit: c.Policy.TransmitFraction,
			Think:    c.Policy.ThinkFraction,
			Generate: c.Policy.GenerateFraction,
		}),
		engine.WithFailurePolicy(engine.FailurePolicy{Mode: mode, MaxRetries: c.Policy.MaxRetries}),
		engine.WithTickYield(c.Policy.TickYield),
		engine.WithRootPrompt(c.Simulation.RootPrompt),
	}
}

// batchSeed keeps batch sizes off the oracle's random stream.
func (c *Config) batchSeed() uint64 {
	return searcher.DeriveSeed(c.Oracle.Seed)
}
