package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSink duplicates validation output to a per-run log file inside a save
// directory. Each run gets a timestamped file, and a latest.log symlink
// always points at the most recent run. Progress updates are console-only
// and are not written to files.
type FileSink struct {
	saveDir string
	runLog  *os.File
	runFile string
	mu      sync.Mutex
}

// NewFileSink creates a FileSink writing into saveDir, creating the
// directory if needed. It opens a run-YYYYMMDD-HHMMSS.log file and points
// the latest.log symlink at it.
func NewFileSink(saveDir string) (*FileSink, error) {
	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}

	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(saveDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(saveDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	sink := &FileSink{
		saveDir: saveDir,
		runLog:  file,
		runFile: runFile,
	}

	sink.write("=== transval run log ===\n")
	sink.write(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return sink, nil
}

// Path returns the path of the run log file.
func (fs *FileSink) Path() string {
	return fs.runFile
}

// Info writes an info line to the run log.
func (fs *FileSink) Info(message string) {
	fs.write(fmt.Sprintf("[%s] [INFO] %s\n", time.Now().Format("15:04:05"), message))
}

// Warn writes a warning line to the run log.
func (fs *FileSink) Warn(message string) {
	fs.write(fmt.Sprintf("[%s] [WARN] %s\n", time.Now().Format("15:04:05"), message))
}

// Progress is a no-op: incremental progress updates are transient console
// output and would bloat the log file.
func (fs *FileSink) Progress(line string) {
}

// Sample writes one source/hypothesis/reference triple to the run log.
func (fs *FileSink) Sample(source, hypothesis, reference string, score float64, scored bool) {
	ts := time.Now().Format("15:04:05")

	hypLabel := "example hypothesis:"
	if scored {
		hypLabel = fmt.Sprintf("example hypothesis (%.4f):", score)
	}

	content := fmt.Sprintf("[%s] example source:     %s\n", ts, source)
	content += fmt.Sprintf("[%s] %s %s\n", ts, hypLabel, hypothesis)
	content += fmt.Sprintf("[%s] example reference:  %s\n", ts, reference)

	fs.write(content)
}

// Close flushes and closes the run log file. Safe to call more than once.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.runLog == nil {
		return nil
	}

	if err := fs.runLog.Sync(); err != nil {
		return fmt.Errorf("failed to sync run log: %w", err)
	}
	if err := fs.runLog.Close(); err != nil {
		return fmt.Errorf("failed to close run log: %w", err)
	}
	fs.runLog = nil

	return nil
}

// write appends to the run log. Writes are best-effort; once the sink is
// closed they are dropped.
func (fs *FileSink) write(message string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.runLog != nil {
		fs.runLog.WriteString(message)
		// Flush after each write so a crashed run leaves a complete log
		fs.runLog.Sync()
	}
}
