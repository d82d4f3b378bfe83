package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schedule-id>",
	Short: "Enqueue an independent validator run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid schedule id: %w", err)
		}

		info, err := scheduler.EnqueueValidate(cmd.Context(), scheduleID)
		if err != nil {
			return fmt.Errorf("failed to enqueue validate: %w", err)
		}
		fmt.Printf("enqueued validate job %s on queue %q\n", info.ID, info.Queue)
		return nil
	},
}
