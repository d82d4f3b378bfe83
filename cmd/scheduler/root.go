// Command scheduler is an operator-facing Cobra CLI that enqueues
// solve, multi-solve, validate, and apply-preset jobs against a
// schedule id, without going through HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinicroster/scheduler/internal/config"
	"github.com/clinicroster/scheduler/internal/job"
	"github.com/clinicroster/scheduler/internal/metrics"
)

var (
	cfg       *config.Config
	scheduler *job.Scheduler
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Trigger solver and validator jobs against a schedule",
	Long: `scheduler enqueues solver, validator, and applier work onto
the same asynq queue cmd/worker drains, so an operator can kick off a
run from a terminal instead of an HTTP client.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		s, err := job.NewScheduler(cfg.Redis.Addr, metrics.NewRegistry())
		if err != nil {
			return fmt.Errorf("failed to connect to job queue: %w", err)
		}
		scheduler = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if scheduler != nil {
			_ = scheduler.Close()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(multiSolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(applyPresetCmd)
}
