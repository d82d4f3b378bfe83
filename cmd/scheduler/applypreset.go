package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	applyPreset        string
	applyClearUnlocked bool
)

var applyPresetCmd = &cobra.Command{
	Use:   "apply-preset <schedule-id>",
	Short: "Enqueue applying a previously computed multi-solve preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid schedule id: %w", err)
		}
		if applyPreset == "" {
			return fmt.Errorf("--preset is required")
		}

		info, err := scheduler.EnqueueApplyPreset(cmd.Context(), scheduleID, applyPreset, applyClearUnlocked)
		if err != nil {
			return fmt.Errorf("failed to enqueue apply-preset: %w", err)
		}
		fmt.Printf("enqueued apply-preset job %s on queue %q\n", info.ID, info.Queue)
		return nil
	},
}

func init() {
	applyPresetCmd.Flags().StringVar(&applyPreset, "preset", "", "preset code to apply (A, B, or C)")
	applyPresetCmd.Flags().BoolVar(&applyClearUnlocked, "clear-unlocked", false, "clear unlocked assignments before applying")
}
