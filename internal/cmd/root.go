// Package cmd implements the overload command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bookops/overload/internal/config"
	"github.com/bookops/overload/pkg/logging"
)

var (
	// Version is set by main at build time.
	Version = "dev"

	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "overload",
	Short: "Vendor MARC file processing for BookOps",
	Long: `Overload matches vendor MARC records against Sierra, decides whether
each record attaches to, overlays, or inserts alongside the catalog's
holdings, applies the required field updates, and splits the batch into
DUP and NEW output files.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command with signal-aware context.
func Execute(version string) {
	Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logging.SetDefault(logging.Default().Level(zerolog.DebugLevel))
	}
	return nil
}
