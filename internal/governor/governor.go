// Package governor implements the validation output governor: the component
// that decides, for each batch of a validation pass, how much and how often
// human-readable output is produced.
//
// The governor sits between a validation loop and an output sink. The loop
// drives it through a four-call contract (OnPassStart, zero or more
// OnBatchResult, OnPassEnd) and the governor gates three kinds of output:
// incremental progress updates, periodic log lines, and printed sample
// triples. Nothing the governor does is fatal to the pass in progress; the
// worst-case behavior is reduced logging.
package governor

import (
	"fmt"

	"github.com/hnt4499/transval/internal/logger"
	"github.com/hnt4499/transval/internal/models"
)

// Unlimited disables the sample-print limit.
const Unlimited = -1

// progressBarWidth is the width of the console progress bar in characters.
const progressBarWidth = 20

// Config holds the immutable per-process governor settings. The zero value
// is not valid; start from DefaultConfig.
type Config struct {
	// MaxSamples limits how many sample triples are printed per validation
	// pass. 0 suppresses all sample printing; Unlimited (-1) prints every
	// sample.
	MaxSamples int

	// SuppressProgress disables the incremental progress indicator. When
	// set, periodic log lines are emitted instead, every LogInterval
	// batches.
	SuppressProgress bool

	// LogInterval is the number of batches between log lines when the
	// progress indicator is suppressed. Must be >= 1.
	LogInterval int

	// SaveLog duplicates all pass output to a run log file under SaveDir
	// for the duration of each pass.
	SaveLog bool

	// SaveDir is the directory run log files are written to when SaveLog
	// is set.
	SaveDir string
}

// DefaultConfig returns the governor defaults: unlimited sample printing,
// progress indicator enabled, log interval 1, no file duplication.
func DefaultConfig() Config {
	return Config{
		MaxSamples:  Unlimited,
		LogInterval: 1,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.MaxSamples < Unlimited {
		return fmt.Errorf("max samples must be >= -1 (-1 = unlimited), got %d", c.MaxSamples)
	}
	if c.LogInterval < 1 {
		return fmt.Errorf("log interval must be >= 1, got %d", c.LogInterval)
	}
	if c.SaveLog && c.SaveDir == "" {
		return fmt.Errorf("save directory is required when save-log is enabled")
	}
	return nil
}

// passState tracks where the governor is in its pass lifecycle.
type passState int

const (
	stateIdle passState = iota
	stateRunning
)

// Governor gates and throttles output produced while a validation loop
// iterates over evaluation results. It is configured once at construction
// and driven synchronously by exactly one pass at a time; overlapping
// passes must be prevented by the caller.
type Governor struct {
	cfg  Config
	sink logger.Sink

	// out is the active output target: sink alone while idle, possibly a
	// fan-out including the per-pass file sink while running.
	out      logger.Sink
	fileSink *logger.FileSink

	state          passState
	totalBatches   int
	batchesSeen    int
	samplesPrinted int
	bar            *logger.ProgressBar
}

// New creates a Governor writing to the given sink. The sink is injected
// here rather than taken from process-global logging state so callers stay
// in control of where output lands. A nil sink discards all output.
func New(cfg Config, sink logger.Sink) (*Governor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = logger.NewNoopSink()
	}
	return &Governor{
		cfg:  cfg,
		sink: sink,
		out:  sink,
	}, nil
}

// OnPassStart begins a validation pass, resetting the per-pass counters.
// totalBatches is the expected batch count, or 0 when unknown (the progress
// indicator then renders a bare counter instead of a percentage bar).
//
// If SaveLog is configured, a run log file sink is opened for the duration
// of the pass. Failure to open it is reported as a warning and the pass
// continues without file duplication.
func (g *Governor) OnPassStart(totalBatches int) error {
	if g.state == stateRunning {
		return fmt.Errorf("validation pass already in progress")
	}
	g.state = stateRunning

	g.totalBatches = totalBatches
	g.batchesSeen = 0
	g.samplesPrinted = 0
	g.out = g.sink

	if g.cfg.SaveLog {
		fileSink, err := logger.NewFileSink(g.cfg.SaveDir)
		if err != nil {
			g.sink.Warn(fmt.Sprintf("cannot open run log in %s: %v; continuing without file output", g.cfg.SaveDir, err))
		} else {
			g.fileSink = fileSink
			g.out = logger.NewMultiSink(g.sink, fileSink)
		}
	}

	if !g.cfg.SuppressProgress {
		g.bar = logger.NewProgressBar(totalBatches, progressBarWidth, false)
	}

	return nil
}

// OnBatchResult processes one batch of evaluation results. Output decisions:
//
//   - progress indicator enabled: a progress update is emitted for every
//     batch;
//   - progress indicator suppressed: a log line is emitted only when the
//     batch index is a multiple of the configured log interval;
//   - independently, sample triples are printed in index order until the
//     per-pass sample limit is reached.
//
// Malformed results are warned about and skipped; one bad sample never
// aborts a pass already in progress.
func (g *Governor) OnBatchResult(batch models.Batch) error {
	if g.state != stateRunning {
		return fmt.Errorf("no validation pass in progress")
	}

	g.batchesSeen++
	index := batch.Index
	if index <= 0 {
		index = g.batchesSeen
	}

	if g.cfg.SuppressProgress {
		if index%g.cfg.LogInterval == 0 {
			g.out.Info(g.formatBatchLine(index))
		}
	} else {
		g.bar.Update(index)
		g.out.Progress(fmt.Sprintf("validating %s", g.bar.Render()))
	}

	for _, result := range batch.Results {
		if g.cfg.MaxSamples >= 0 && g.samplesPrinted >= g.cfg.MaxSamples {
			break
		}
		if result.Hypothesis == "" && result.Reference == "" {
			g.out.Warn(fmt.Sprintf("skipping malformed result %q in batch %d", result.ID, index))
			continue
		}
		g.out.Sample(result.Source, result.Hypothesis, result.Reference, result.Score, result.Scored)
		g.samplesPrinted++
	}

	return nil
}

// OnPassEnd finishes the pass and releases the run log file sink if one was
// opened. It must be called on every exit path, including early
// termination, or the file handle leaks for the process lifetime.
func (g *Governor) OnPassEnd() error {
	if g.state != stateRunning {
		return fmt.Errorf("no validation pass in progress")
	}

	g.state = stateIdle
	g.out = g.sink
	g.bar = nil

	if g.fileSink != nil {
		err := g.fileSink.Close()
		g.fileSink = nil
		if err != nil {
			g.sink.Warn(fmt.Sprintf("closing run log: %v", err))
		}
	}

	return nil
}

// SamplesPrinted returns how many sample triples have been emitted in the
// current pass (or the last completed pass, once idle).
func (g *Governor) SamplesPrinted() int {
	return g.samplesPrinted
}

// BatchesSeen returns how many batches have been processed in the current
// pass (or the last completed pass, once idle).
func (g *Governor) BatchesSeen() int {
	return g.batchesSeen
}

// formatBatchLine renders the periodic log line used when the progress
// indicator is suppressed.
func (g *Governor) formatBatchLine(index int) string {
	if g.totalBatches > 0 {
		return fmt.Sprintf("validated batch %d/%d", index, g.totalBatches)
	}
	return fmt.Sprintf("validated batch %d", index)
}
