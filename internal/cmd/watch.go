package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnt4499/transval/internal/corpus"
	"github.com/hnt4499/transval/internal/governor"
	"github.com/hnt4499/transval/internal/logger"
	"github.com/hnt4499/transval/internal/runner"
	"github.com/hnt4499/transval/internal/scorer"
	"github.com/hnt4499/transval/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Re-run validation when hypothesis files change",
		Long: `Watch a directory for new or changed JSONL result files and run a
governed validation pass over each one as it appears.

Useful while a decoding job is still producing output files: each finished
file gets scored and summarized without restarting transval. Terminate with
Ctrl-C; the watcher releases its resources on the way out.

Example:
  transval watch runs/decode-output --eval-bleu-print-samples 3`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .transval/config.yaml)")
	cmd.Flags().String("pattern", "*.jsonl", "Glob pattern for result files")
	cmd.Flags().Int("eval-bleu-print-samples", governor.Unlimited, "Maximum sample triples printed per pass (0 = none, -1 = unlimited)")
	cmd.Flags().Bool("val-suppress-progress-bar", false, "Suppress the progress indicator during validation")
	cmd.Flags().Int("val-log-interval", 1, "Batches between log lines when the progress bar is suppressed")
	cmd.Flags().Bool("save-log", false, "Duplicate pass output to a run log in the save directory")
	cmd.Flags().String("save-dir", "", "Directory for run logs")
	cmd.Flags().Int("batch-size", 0, "Results per validation batch")
	cmd.Flags().String("log-level", "", "Console log level (trace, debug, info, warn, error)")

	return cmd
}

// runWatch implements the watch command logic
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	dir := args[0]

	sink := logger.NewConsoleSink(cmd.OutOrStdout(), cfg.LogLevel)
	defer sink.Close()

	gov, err := governor.New(cfg.GovernorConfig(), sink)
	if err != nil {
		return err
	}

	run := &runner.Runner{
		Scorer:    scorer.BLEUScorer{},
		Governor:  gov,
		BatchSize: cfg.BatchSize,
	}

	watcher, err := watch.New(dir, pattern)
	if err != nil {
		return err
	}
	defer watcher.Close()

	sink.Info(fmt.Sprintf("watching %s for %s files", dir, pattern))

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watcher.Errors():
			sink.Error(fmt.Sprintf("watch error: %v", err))
		case event := <-watcher.Events():
			sink.Info(fmt.Sprintf("results changed: %s", event.Path))

			dataset, err := corpus.LoadJSONL(event.Path)
			if err != nil {
				sink.Warn(fmt.Sprintf("cannot load %s: %v", event.Path, err))
				continue
			}
			if dataset.Skipped > 0 {
				sink.Warn(fmt.Sprintf("skipped %d malformed input lines", dataset.Skipped))
			}

			summary, err := run.Run(ctx, dataset)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sink.Error(fmt.Sprintf("validation pass failed for %s: %v", event.Path, err))
				continue
			}
			summary.HypothesisPath = event.Path
			summary.ReferencePath = event.Path

			printSummary(sink, summary)
		}
	}
}
