package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	solveMaxTime float64
	solveSeed    int64
	solveWeight  float64
)

var solveCmd = &cobra.Command{
	Use:   "solve <schedule-id>",
	Short: "Enqueue a single-preset solve run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid schedule id: %w", err)
		}

		maxTime := solveMaxTime
		if maxTime <= 0 {
			maxTime = cfg.Solver.MaxTimeSecondsSingle
		}

		info, err := scheduler.EnqueueSolve(cmd.Context(), scheduleID, maxTime, solveSeed, solveWeight)
		if err != nil {
			return fmt.Errorf("failed to enqueue solve: %w", err)
		}
		fmt.Printf("enqueued solve job %s on queue %q\n", info.ID, info.Queue)
		return nil
	},
}

func init() {
	solveCmd.Flags().Float64Var(&solveMaxTime, "max-time", 0, "solver time budget in seconds (defaults to config)")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "solver random seed")
	solveCmd.Flags().Float64Var(&solveWeight, "weight-scale", 1.0, "soft-violation weight scale")
}
