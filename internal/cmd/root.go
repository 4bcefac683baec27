// Package cmd wires the transval command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for transval
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transval",
		Short: "Governed output for translation validation passes",
		Long: `Transval runs validation passes over machine-translation outputs and
governs how much human-readable output they produce.

It loads hypothesis/reference corpora (parallel text or JSONL), scores them
with BLEU where no score was supplied, and gates the printed samples,
progress indicator, and periodic log lines through a configurable output
governor. Pass summaries can be persisted and compared across runs.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewEvalCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
