package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"ipo-checker/models"
	"ipo-checker/scraper/ipo"
	"ipo-checker/services"
	"ipo-checker/storage"
	"ipo-checker/utils"
)

func newCheckCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check [ids...]",
		Short: "Check every application ID found in the arguments, a file, or a pasted line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			term := ipo.NewTerminalCaptcha(os.Stdin, cmd.OutOrStdout())

			text := strings.Join(args, " ")
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				text += "\n" + string(data)
			}
			if strings.TrimSpace(text) == "" && file == "" {
				line, _, err := term.Line(ctx, "Paste application IDs: ")
				if err != nil {
					return err
				}
				text = line
			}

			ids, err := services.ParseInput(text)
			if errors.Is(err, services.ErrNoInput) || errors.Is(err, services.ErrNoIDs) {
				utils.Warn("%s", capitalize(err.Error()))
				return nil
			}
			utils.Info("Found %d IDs", len(ids))

			store, err := storage.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			session, err := ipo.NewSession(cfg)
			if err != nil {
				return fmt.Errorf("could not start browser: %w", err)
			}
			defer session.Close()

			if session.Launched() {
				if _, _, err := term.Line(ctx, "Select the IPO on the status page, then press Enter: "); err != nil {
					return err
				}
			}

			dispatcher := ipo.NewDispatcher(session, store, term, ipo.LogNotifier{})
			ack, job := dispatcher.Dispatch(ctx, ids)
			if ack.Status != models.AckProcessing {
				return errors.New(ack.Message)
			}
			utils.Info("Processing... Follow the prompts below.")

			<-job.Done()

			set, err := store.Results(ctx)
			if err != nil {
				utils.Warn("Could not reload results: %v", err)
			}
			printSummary(len(ids), services.Count(set), job.Err())
			return job.Err()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read IDs from a text file")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func printSummary(requested, stored int, err error) {
	status := "COMPLETE"
	if err != nil {
		status = "STOPPED"
	}
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Printf("║  Batch %-38s║\n", status)
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  IDs requested  : %-26d║\n", requested)
	fmt.Printf("║  Results stored : %-26d║\n", stored)
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()
}
