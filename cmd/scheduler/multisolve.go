package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var multiSolveMaxTime float64

var multiSolveCmd = &cobra.Command{
	Use:   "multi-solve <schedule-id>",
	Short: "Enqueue a three-preset (A/B/C) multi-solve run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid schedule id: %w", err)
		}

		maxTime := multiSolveMaxTime
		if maxTime <= 0 {
			maxTime = cfg.Solver.MaxTimeSecondsMulti
		}

		info, err := scheduler.EnqueueMultiSolve(cmd.Context(), scheduleID, maxTime)
		if err != nil {
			return fmt.Errorf("failed to enqueue multi-solve: %w", err)
		}
		fmt.Printf("enqueued multi-solve job %s on queue %q\n", info.ID, info.Queue)
		return nil
	},
}

func init() {
	multiSolveCmd.Flags().Float64Var(&multiSolveMaxTime, "max-time-per-preset", 0, "per-preset solver time budget in seconds (defaults to config)")
}
