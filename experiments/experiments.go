package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"triz/engine"
	"triz/metrics"
	"triz/oracle"
	"triz/searcher"
)

const DefaultRuns = 10 // Per config

// SweepConfig describes a grid of MaxDepth × MaxBatch configurations.
type SweepConfig struct {
	Name        string
	RecordsDir  string // Records are not written when empty
	MaxDepths   []int
	MaxBatches  []int
	Runs        int
	MaxChildren int
	// Seed makes the sweep reproducible: run i uses Seed+i. 0 seeds from the clock.
	Seed uint64
}

func DefaultSweep() SweepConfig {
	return SweepConfig{
		Name:        "sweep",
		MaxDepths:   []int{2, 3, 4},
		MaxBatches:  []int{1, 2, 4},
		Runs:        DefaultRuns,
		MaxChildren: oracle.DefaultMaxChildren,
	}
}

// Configs expands the grid, depth-major.
func (s SweepConfig) Configs() []metrics.ConfigRecord {
	configs := []metrics.ConfigRecord{}
	for _, depth := range s.MaxDepths {
		for _, batch := range s.MaxBatches {
			configs = append(configs, metrics.ConfigRecord{
				ID:       len(configs) + 1,
				MaxDepth: depth,
				MaxBatch: batch,
				Runs:     s.Runs,
			})
		}
	}
	return configs
}

// RunSweep runs every config of the grid with no step delay and returns one
// record per run. Records are also written as CSV when RecordsDir is set.
func RunSweep(ctx context.Context, sweep SweepConfig) ([]metrics.RunRecord, error) {
	configs := sweep.Configs()
	if len(configs) == 0 || sweep.Runs < 1 {
		return nil, fmt.Errorf("%w: sweep %q has no runs", engine.ErrInvalidConfig, sweep.Name)
	}

	count := 0
	runRecords := []metrics.RunRecord{}
	tickRecords := []metrics.TickRecord{}

	log.Info().Msgf("starting %s sweep...", sweep.Name)

	for ci, config := range configs {
		log.Info().Msgf("starting config %d of %d with max_depth=%d max_batch=%d...", ci+1, len(configs), config.MaxDepth, config.MaxBatch)

		for i := 0; i < sweep.Runs; i++ {
			if err := ctx.Err(); err != nil {
				return runRecords, err
			}

			count++
			runMetric, err := runOnce(ctx, sweep, config, sweep.runSeed(count))
			if err != nil {
				return runRecords, fmt.Errorf("run %d of config %d: %w", i+1, config.ID, err)
			}
			runRecords = append(runRecords, metrics.RunRecord{
				ID:        count,
				Config:    config.ID,
				RunMetric: runMetric,
			})
			for _, tm := range runMetric.TickMetrics {
				tickRecords = append(tickRecords, metrics.TickRecord{
					Run:        count,
					TickMetric: tm,
				})
			}

			log.Debug().Msgf("completed config %d run %d in %d ticks", config.ID, i+1, runMetric.Ticks)
		}
		log.Info().Msgf("completed config %d of %d", ci+1, len(configs))
	}

	log.Info().Msgf("completed %s sweep", sweep.Name)

	if sweep.RecordsDir == "" {
		return runRecords, nil
	}
	if err := store(sweep, configs, runRecords, tickRecords); err != nil {
		return runRecords, err
	}
	return runRecords, nil
}

func (s SweepConfig) runSeed(run int) uint64 {
	if s.Seed == 0 {
		return 0
	}
	return s.Seed + uint64(run)
}

func runOnce(ctx context.Context, sweep SweepConfig, config metrics.ConfigRecord, seed uint64) (metrics.RunMetric, error) {
	collector := metrics.NewCollector()
	e := engine.New(
		engine.WithOracle(oracle.NewRandom(oracle.WithSeed(seed), oracle.WithMaxChildren(sweep.MaxChildren))),
		engine.WithBatchSizer(searcher.NewRandomBatch(config.MaxBatch, searcher.DeriveSeed(seed))),
		engine.WithPacing(engine.Pacing{}),
		engine.WithMetrics(collector),
		engine.WithLogger(log.Logger),
	)

	outcome, err := e.Run(ctx, engine.Config{MaxDepth: config.MaxDepth})
	if err != nil {
		return metrics.RunMetric{}, err
	}
	if outcome == engine.OutcomeCancelled {
		return metrics.RunMetric{}, context.Canceled
	}
	return e.LastRun(), nil
}

func store(sweep SweepConfig, configs []metrics.ConfigRecord, runs []metrics.RunRecord, ticks []metrics.TickRecord) error {
	writer, err := metrics.NewWriter(sweep.RecordsDir, sweep.Name)
	if err != nil {
		return fmt.Errorf("failed to create sweep writer: %w", err)
	}

	if err := writer.WriteConfigs(configs); err != nil {
		return fmt.Errorf("failed to store sweep configs: %w", err)
	}
	if err := writer.WriteRunRecords(runs); err != nil {
		return fmt.Errorf("failed to store run records: %w", err)
	}
	if err := writer.WriteTickRecords(ticks); err != nil {
		return fmt.Errorf("failed to store tick records: %w", err)
	}
	log.Info().Str("dir", writer.Dir()).Msg("stored sweep records")
	return nil
}
