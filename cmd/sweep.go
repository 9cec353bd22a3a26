package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"triz/config"
	"triz/experiments"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a max depth × max batch grid and record metrics as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		sweep := experiments.DefaultSweep()
		sweep.RecordsDir = cfg.Metrics.RecordsDir
		sweep.MaxChildren = cfg.Oracle.MaxChildren
		sweep.Seed = cfg.Oracle.Seed
		flags := cmd.Flags()
		sweep.Name, _ = flags.GetString("name")
		sweep.Runs, _ = flags.GetInt("runs")
		sweep.MaxDepths, _ = flags.GetIntSlice("depths")
		sweep.MaxBatches, _ = flags.GetIntSlice("batches")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := experiments.RunSweep(ctx, sweep)
		log.Info().Int("runs", len(records)).Msg("sweep finished")
		return err
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	defaults := experiments.DefaultSweep()
	flags := sweepCmd.Flags()
	flags.String("name", defaults.Name, "sweep name, used as the records subdirectory")
	flags.Int("runs", defaults.Runs, "runs per config")
	flags.IntSlice("depths", defaults.MaxDepths, "max depths to sweep")
	flags.IntSlice("batches", defaults.MaxBatches, "max batch sizes to sweep")
}
