package cmd

import (
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "transval" {
		t.Errorf("Use = %q, want transval", cmd.Use)
	}
	if !cmd.SilenceUsage {
		t.Error("SilenceUsage should be enabled")
	}

	subcommands := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, name := range []string{"eval", "history", "watch"} {
		if !subcommands[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestEvalCommandFlags(t *testing.T) {
	cmd := NewEvalCommand()

	flags := []struct {
		name     string
		defValue string
	}{
		{"eval-bleu-print-samples", "-1"},
		{"val-suppress-progress-bar", "false"},
		{"val-log-interval", "1"},
		{"save-log", "false"},
		{"save-dir", ""},
		{"batch-size", "0"},
		{"log-level", ""},
		{"no-history", "false"},
		{"jsonl", ""},
		{"hypothesis", ""},
		{"reference", ""},
		{"source", ""},
		{"config", ""},
	}

	for _, tt := range flags {
		flag := cmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Errorf("missing flag --%s", tt.name)
			continue
		}
		if flag.DefValue != tt.defValue {
			t.Errorf("flag --%s default = %q, want %q", tt.name, flag.DefValue, tt.defValue)
		}
	}
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewWatchCommand()

	for _, name := range []string{"pattern", "eval-bleu-print-samples", "val-suppress-progress-bar", "val-log-interval", "save-log"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
}
