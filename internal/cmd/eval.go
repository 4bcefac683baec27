package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hnt4499/transval/internal/config"
	"github.com/hnt4499/transval/internal/corpus"
	"github.com/hnt4499/transval/internal/filelock"
	"github.com/hnt4499/transval/internal/governor"
	"github.com/hnt4499/transval/internal/history"
	"github.com/hnt4499/transval/internal/logger"
	"github.com/hnt4499/transval/internal/models"
	"github.com/hnt4499/transval/internal/runner"
	"github.com/hnt4499/transval/internal/scorer"
)

// NewEvalCommand creates the eval command
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run one governed validation pass",
		Long: `Run one validation pass over a corpus of translation outputs.

The corpus is either a pair of line-aligned hypothesis/reference text files
(with an optional source file) or a single JSONL file with one result per
line. Results without a precomputed score are scored with sentence BLEU.

Output during the pass is gated by the validation output governor:
  --eval-bleu-print-samples limits printed sample triples per pass,
  --val-suppress-progress-bar replaces the progress indicator with
  periodic log lines every --val-log-interval batches, and
  --save-log duplicates all pass output to a run log in the save directory.

Configuration is loaded from .transval/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  transval eval --hypothesis hyp.txt --reference ref.txt
  transval eval --source src.txt --hypothesis hyp.txt --reference ref.txt
  transval eval --jsonl results.jsonl --eval-bleu-print-samples 5
  transval eval --jsonl results.jsonl --val-suppress-progress-bar --val-log-interval 100
  transval eval --jsonl results.jsonl --save-log --save-dir runs/wmt14`,
		RunE: runEval,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .transval/config.yaml)")
	cmd.Flags().String("source", "", "Source text file (optional, line-aligned)")
	cmd.Flags().String("hypothesis", "", "Hypothesis text file (line-aligned with reference)")
	cmd.Flags().String("reference", "", "Reference text file (line-aligned with hypothesis)")
	cmd.Flags().String("jsonl", "", "JSONL results file (alternative to text files)")
	cmd.Flags().Int("eval-bleu-print-samples", governor.Unlimited, "Maximum sample triples printed per pass (0 = none, -1 = unlimited)")
	cmd.Flags().Bool("val-suppress-progress-bar", false, "Suppress the progress indicator during validation")
	cmd.Flags().Int("val-log-interval", 1, "Batches between log lines when the progress bar is suppressed")
	cmd.Flags().Bool("save-log", false, "Duplicate pass output to a run log in the save directory")
	cmd.Flags().String("save-dir", "", "Directory for run logs and pass history")
	cmd.Flags().Int("batch-size", 0, "Results per validation batch")
	cmd.Flags().String("log-level", "", "Console log level (trace, debug, info, warn, error)")
	cmd.Flags().Bool("no-history", false, "Do not record this pass in the history database")

	return cmd
}

// runEval implements the eval command logic
func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	jsonlPath, _ := cmd.Flags().GetString("jsonl")
	srcPath, _ := cmd.Flags().GetString("source")
	hypPath, _ := cmd.Flags().GetString("hypothesis")
	refPath, _ := cmd.Flags().GetString("reference")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	dataset, err := loadDataset(jsonlPath, srcPath, hypPath, refPath)
	if err != nil {
		return err
	}

	sink := logger.NewConsoleSink(cmd.OutOrStdout(), cfg.LogLevel)
	defer sink.Close()

	sink.Debug(fmt.Sprintf("merged configuration: samples=%d suppress_progress=%v log_interval=%d save_log=%v save_dir=%s batch_size=%d",
		cfg.Governor.EvalBLEUPrintSamples, cfg.Governor.ValSuppressProgressBar,
		cfg.Governor.ValLogInterval, cfg.Governor.SaveLog, cfg.SaveDir, cfg.BatchSize))

	recordHistory := cfg.History.Enabled && !noHistory

	// Serialize writers on the save directory when the pass writes to it.
	if cfg.Governor.SaveLog || recordHistory {
		lock, err := filelock.GuardDir(cfg.SaveDir)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	gov, err := governor.New(cfg.GovernorConfig(), sink)
	if err != nil {
		return err
	}

	run := &runner.Runner{
		Scorer:    scorer.BLEUScorer{},
		Governor:  gov,
		BatchSize: cfg.BatchSize,
	}

	if dataset.Skipped > 0 {
		sink.Warn(fmt.Sprintf("skipped %d malformed input lines", dataset.Skipped))
	}
	sink.Info(fmt.Sprintf("starting validation pass: %d results, batch size %d", dataset.Len(), cfg.BatchSize))

	summary, err := run.Run(cmd.Context(), dataset)
	if err != nil {
		return fmt.Errorf("validation pass failed: %w", err)
	}
	summary.SourcePath = srcPath
	summary.HypothesisPath = hypPath
	summary.ReferencePath = refPath
	if jsonlPath != "" {
		summary.HypothesisPath = jsonlPath
		summary.ReferencePath = jsonlPath
	}

	printSummary(sink, summary)

	if recordHistory {
		if err := recordPass(cmd.Context(), cfg, summary); err != nil {
			sink.Warn(fmt.Sprintf("failed to record pass history: %v", err))
		}
	}

	return nil
}

// loadMergedConfig loads the YAML config and merges eval flags over it.
func loadMergedConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only flags the user actually set)
	var printSamplesPtr, logIntervalPtr, batchSizePtr *int
	var suppressPtr, saveLogPtr *bool
	var saveDirPtr, logLevelPtr *string

	if cmd.Flags().Changed("eval-bleu-print-samples") {
		v, _ := cmd.Flags().GetInt("eval-bleu-print-samples")
		printSamplesPtr = &v
	}
	if cmd.Flags().Changed("val-suppress-progress-bar") {
		v, _ := cmd.Flags().GetBool("val-suppress-progress-bar")
		suppressPtr = &v
	}
	if cmd.Flags().Changed("val-log-interval") {
		v, _ := cmd.Flags().GetInt("val-log-interval")
		logIntervalPtr = &v
	}
	if cmd.Flags().Changed("save-log") {
		v, _ := cmd.Flags().GetBool("save-log")
		saveLogPtr = &v
	}
	if cmd.Flags().Changed("save-dir") {
		v, _ := cmd.Flags().GetString("save-dir")
		saveDirPtr = &v
	}
	if cmd.Flags().Changed("batch-size") {
		v, _ := cmd.Flags().GetInt("batch-size")
		batchSizePtr = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}

	cfg.MergeWithFlags(printSamplesPtr, suppressPtr, logIntervalPtr, saveLogPtr, saveDirPtr, batchSizePtr, logLevelPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDataset loads the corpus from either a JSONL file or parallel text
// files; exactly one of the two input styles must be given.
func loadDataset(jsonlPath, srcPath, hypPath, refPath string) (*corpus.Dataset, error) {
	if jsonlPath != "" {
		if hypPath != "" || refPath != "" || srcPath != "" {
			return nil, fmt.Errorf("--jsonl cannot be combined with --source/--hypothesis/--reference")
		}
		return corpus.LoadJSONL(jsonlPath)
	}

	if hypPath == "" || refPath == "" {
		return nil, fmt.Errorf("either --jsonl or both --hypothesis and --reference are required")
	}
	return corpus.LoadParallel(srcPath, hypPath, refPath)
}

// printSummary emits the end-of-pass summary.
func printSummary(sink logger.Sink, summary models.PassSummary) {
	sink.Info("=== validation summary ===")
	sink.Info(fmt.Sprintf("batches:         %d", summary.Batches))
	sink.Info(fmt.Sprintf("results:         %d", summary.Results))
	sink.Info(fmt.Sprintf("samples printed: %d", summary.SamplesPrinted))
	if summary.SkippedResults > 0 {
		sink.Warn(fmt.Sprintf("skipped results: %d", summary.SkippedResults))
	}
	sink.Info(fmt.Sprintf("corpus BLEU:     %.4f", summary.CorpusBLEU))
	sink.Info(fmt.Sprintf("mean score:      %.4f", summary.MeanScore))
	sink.Info(fmt.Sprintf("duration:        %s", summary.Duration().Round(time.Millisecond)))
}

// recordPass stores the summary in the history database.
func recordPass(ctx context.Context, cfg *config.Config, summary models.PassSummary) error {
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.RecordPass(ctx, summary); err != nil {
		return err
	}

	if cfg.History.KeepDays > 0 {
		if _, err := store.Prune(ctx, cfg.History.KeepDays); err != nil {
			return err
		}
	}

	return nil
}
