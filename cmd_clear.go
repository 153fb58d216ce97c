package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"ipo-checker/storage"
	"ipo-checker/utils"
)

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete stored results and the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			if err := store.Clear(ctx); err != nil {
				return err
			}
			utils.Success("Results and job queue cleared.")
			return nil
		},
	}
}
