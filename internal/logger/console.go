package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleSink writes validation output to a writer with [HH:MM:SS]
// timestamps and log level filtering. Color and carriage-return progress
// rewriting are enabled automatically when the writer is a terminal.
type ConsoleSink struct {
	writer         io.Writer
	logLevel       string
	mutex          sync.Mutex
	colorOutput    bool
	progressActive bool
}

// NewConsoleSink creates a ConsoleSink writing to the provided io.Writer.
// If writer is nil, output is silently discarded.
// logLevel determines the minimum level for log lines; valid levels are
// trace, debug, info, warn, error (case-insensitive), defaulting to "info"
// for empty or invalid values. Sample triples are emitted at info level.
func NewConsoleSink(writer io.Writer, logLevel string) *ConsoleSink {
	return &ConsoleSink{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors and
// in-place progress updates. Respects NO_COLOR via the color library.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cs *ConsoleSink) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cs.logLevel)
}

// Info emits an info-level line.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cs *ConsoleSink) Info(message string) {
	cs.logWithLevel("INFO", message)
}

// Warn emits a warning line.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cs *ConsoleSink) Warn(message string) {
	cs.logWithLevel("WARN", message)
}

// Debug emits a debug-level line. Not part of the Sink contract; used by
// commands for verbose diagnostics.
func (cs *ConsoleSink) Debug(message string) {
	cs.logWithLevel("DEBUG", message)
}

// Error emits an error-level line.
func (cs *ConsoleSink) Error(message string) {
	cs.logWithLevel("ERROR", message)
}

// logWithLevel writes a line at the specified level if filtering allows it.
func (cs *ConsoleSink) logWithLevel(level string, message string) {
	if cs.writer == nil {
		return
	}

	if !cs.shouldLog(strings.ToLower(level)) {
		return
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.finishProgressLocked()

	ts := timestamp()
	var formatted string
	if cs.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cs.writer.Write([]byte(formatted))
}

// colorizeLevel wraps a level tag in its conventional color.
func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// Progress emits an incremental progress update at info level. On a
// terminal the current line is rewritten in place; otherwise the update is
// written as an ordinary line so non-interactive logs stay readable.
func (cs *ConsoleSink) Progress(line string) {
	if cs.writer == nil {
		return
	}

	if !cs.shouldLog("info") {
		return
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	ts := timestamp()
	if cs.colorOutput {
		cs.writer.Write([]byte(fmt.Sprintf("\r[%s] %s", ts, line)))
		cs.progressActive = true
	} else {
		cs.writer.Write([]byte(fmt.Sprintf("[%s] %s\n", ts, line)))
	}
}

// Sample emits one source/hypothesis/reference triple at info level.
// Format:
//
//	[HH:MM:SS] example source:     <source>
//	[HH:MM:SS] example hypothesis (-1.2340): <hypothesis>
//	[HH:MM:SS] example reference:  <reference>
//
// The score annotation on the hypothesis line is omitted when no real score
// is available.
func (cs *ConsoleSink) Sample(source, hypothesis, reference string, score float64, scored bool) {
	if cs.writer == nil {
		return
	}

	if !cs.shouldLog("info") {
		return
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.finishProgressLocked()

	ts := timestamp()
	srcLabel := "example source:    "
	hypLabel := "example hypothesis:"
	refLabel := "example reference: "
	if scored {
		hypLabel = fmt.Sprintf("example hypothesis (%.4f):", score)
	}

	if cs.colorOutput {
		srcLabel = color.New(color.FgCyan).Sprint(srcLabel)
		hypLabel = color.New(color.FgGreen).Sprint(hypLabel)
		refLabel = color.New(color.FgYellow).Sprint(refLabel)
	}

	output := fmt.Sprintf("[%s] %s %s\n", ts, srcLabel, source)
	output += fmt.Sprintf("[%s] %s %s\n", ts, hypLabel, hypothesis)
	output += fmt.Sprintf("[%s] %s %s\n", ts, refLabel, reference)

	cs.writer.Write([]byte(output))
}

// Close terminates any in-place progress line so the shell prompt does not
// land mid-line. The underlying writer is not owned and stays open.
func (cs *ConsoleSink) Close() error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.finishProgressLocked()
	return nil
}

// finishProgressLocked moves to a fresh line if a \r progress line is
// currently displayed. Caller must hold the mutex.
func (cs *ConsoleSink) finishProgressLocked() {
	if cs.progressActive {
		cs.writer.Write([]byte("\n"))
		cs.progressActive = false
	}
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}
