package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"ipo-checker/config"
	"ipo-checker/utils"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	utils.Sync()
	if err != nil {
		utils.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ipo-checker",
		Short:         "Check IPO allotment status for a batch of application IDs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			utils.SetVerbose(verbose || cfg.Verbose)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCheckCommand(),
		newResultsCommand(),
		newWatchCommand(),
		newClearCommand(),
		newExportCommand(),
	)
	return root
}
