package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestEvalCommandRunsPass(t *testing.T) {
	dir := t.TempDir()
	hypPath := filepath.Join(dir, "hyp.txt")
	refPath := filepath.Join(dir, "ref.txt")
	writeLines(t, hypPath,
		"the cat sat on the mat",
		"a quick brown fox",
		"hello world",
	)
	writeLines(t, refPath,
		"the cat sat on the mat",
		"the quick brown fox",
		"hello world",
	)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"eval",
		"--hypothesis", hypPath,
		"--reference", refPath,
		"--eval-bleu-print-samples", "2",
		"--val-suppress-progress-bar",
		"--no-history",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "corpus BLEU") {
		t.Errorf("output missing summary, got:\n%s", output)
	}
	if got := strings.Count(output, "example hypothesis"); got != 2 {
		t.Errorf("printed %d samples, want 2. Output:\n%s", got, output)
	}
	if !strings.Contains(output, "samples printed: 2") {
		t.Errorf("output missing sample count, got:\n%s", output)
	}
}

// TestEvalCommandDebugConfigEcho verifies --log-level debug surfaces the
// merged configuration and the default level keeps it quiet.
func TestEvalCommandDebugConfigEcho(t *testing.T) {
	dir := t.TempDir()
	hypPath := filepath.Join(dir, "hyp.txt")
	refPath := filepath.Join(dir, "ref.txt")
	writeLines(t, hypPath, "hello world")
	writeLines(t, refPath, "hello world")

	runEvalWithLevel := func(level string) string {
		var out bytes.Buffer
		root := NewRootCommand()
		root.SetOut(&out)
		root.SetErr(&out)
		args := []string{
			"eval",
			"--hypothesis", hypPath,
			"--reference", refPath,
			"--val-suppress-progress-bar",
			"--no-history",
		}
		if level != "" {
			args = append(args, "--log-level", level)
		}
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("eval failed at level %q: %v", level, err)
		}
		return out.String()
	}

	debugOut := runEvalWithLevel("debug")
	if !strings.Contains(debugOut, "[DEBUG]") || !strings.Contains(debugOut, "merged configuration") {
		t.Errorf("debug level missing configuration echo:\n%s", debugOut)
	}

	infoOut := runEvalWithLevel("")
	if strings.Contains(infoOut, "[DEBUG]") {
		t.Errorf("default level should hide debug lines:\n%s", infoOut)
	}
}

// TestEvalCommandRecordsHistoryUnderSaveDir verifies eval --save-dir and
// history show --save-dir agree on where the history database lives.
func TestEvalCommandRecordsHistoryUnderSaveDir(t *testing.T) {
	dir := t.TempDir()
	saveDir := filepath.Join(dir, "runs")
	hypPath := filepath.Join(dir, "hyp.txt")
	refPath := filepath.Join(dir, "ref.txt")
	writeLines(t, hypPath, "hello world")
	writeLines(t, refPath, "hello world")

	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{
		"eval",
		"--hypothesis", hypPath,
		"--reference", refPath,
		"--save-dir", saveDir,
		"--val-suppress-progress-bar",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(saveDir, "history.db")); err != nil {
		t.Fatalf("history database not under save dir: %v", err)
	}

	var out bytes.Buffer
	show := NewRootCommand()
	show.SetOut(&out)
	show.SetErr(&out)
	show.SetArgs([]string{"history", "show", "--save-dir", saveDir})
	if err := show.Execute(); err != nil {
		t.Fatalf("history show failed: %v", err)
	}

	if strings.Contains(out.String(), "No validation passes recorded") {
		t.Fatalf("history show found no passes under %s:\n%s", saveDir, out.String())
	}
	if !strings.Contains(out.String(), "RUN") {
		t.Errorf("history show output missing pass listing:\n%s", out.String())
	}
}

func TestEvalCommandRejectsConflictingInputs(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"eval",
		"--jsonl", "results.jsonl",
		"--hypothesis", "hyp.txt",
		"--no-history",
	})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for --jsonl combined with --hypothesis")
	}
}

func TestEvalCommandRequiresInput(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"eval", "--no-history"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error when no input files are given")
	}
}
