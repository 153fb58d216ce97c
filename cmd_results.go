package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"ipo-checker/services"
	"ipo-checker/storage"
	"ipo-checker/utils"
)

func newResultsCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show stored results grouped by IPO",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			set, err := store.Results(ctx)
			if err != nil {
				return err
			}
			services.PrintResults(cmd.OutOrStdout(), set, raw)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored result markup")
	return cmd
}

func newWatchCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show stored results and refresh whenever they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			render := func() {
				set, err := store.Results(ctx)
				if err != nil {
					utils.Warn("Could not read results: %v", err)
					return
				}
				clearScreen(out)
				services.PrintResults(out, set, raw)
			}

			render()
			utils.Info("Watching for changes (Ctrl-C to stop)")
			return store.Watch(ctx, render)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored result markup")
	return cmd
}

func clearScreen(w io.Writer) {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(w, "\033[H\033[2J")
	}
}
