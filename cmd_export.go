package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"ipo-checker/storage"
)

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "export csv|html",
		Short:     "Write stored results to a CSV file or a static HTML report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "html"},
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

			switch strings.ToLower(args[0]) {
			case "csv":
				path := cfg.CSVPath
				if out != "" {
					path = out
				}
				return storage.NewCSVWriter(path).Write(set)
			case "html":
				path := cfg.HTMLPath
				if out != "" {
					path = out
				}
				return storage.NewHTMLReport(path).Write(set)
			default:
				return fmt.Errorf("unknown export format %q", args[0])
			}
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path")
	return cmd
}
