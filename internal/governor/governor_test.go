package governor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hnt4499/transval/internal/models"
)

// captureSink records everything the governor emits.
type captureSink struct {
	infos    []string
	warns    []string
	progress []string
	samples  []string
	closed   int
}

func (c *captureSink) Info(message string)  { c.infos = append(c.infos, message) }
func (c *captureSink) Warn(message string)  { c.warns = append(c.warns, message) }
func (c *captureSink) Progress(line string) { c.progress = append(c.progress, line) }
func (c *captureSink) Sample(source, hypothesis, reference string, score float64, scored bool) {
	c.samples = append(c.samples, hypothesis)
}
func (c *captureSink) Close() error {
	c.closed++
	return nil
}

// singleResultBatches builds n batches of one well-formed result each.
func singleResultBatches(n int) []models.Batch {
	batches := make([]models.Batch, n)
	for i := range batches {
		batches[i] = models.Batch{
			Index: i + 1,
			Results: []models.EvaluationResult{
				{
					ID:         string(rune('a' + i)),
					Source:     "source",
					Hypothesis: "hypothesis " + string(rune('a'+i)),
					Reference:  "reference",
				},
			},
		}
	}
	return batches
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults are valid", DefaultConfig(), false},
		{"zero samples allowed", Config{MaxSamples: 0, LogInterval: 1}, false},
		{"unlimited samples allowed", Config{MaxSamples: Unlimited, LogInterval: 1}, false},
		{"negative samples below sentinel rejected", Config{MaxSamples: -2, LogInterval: 1}, true},
		{"zero log interval rejected", Config{MaxSamples: 1, LogInterval: 0}, true},
		{"negative log interval rejected", Config{MaxSamples: 1, LogInterval: -3}, true},
		{"save log without dir rejected", Config{MaxSamples: 1, LogInterval: 1, SaveLog: true}, true},
		{"save log with dir", Config{MaxSamples: 1, LogInterval: 1, SaveLog: true, SaveDir: "/tmp"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{MaxSamples: 0, LogInterval: 0}, nil); err == nil {
		t.Error("expected error for invalid config")
	}
}

// With a limit of 2 and 5 batches, exactly the first two samples are
// printed.
func TestSampleLimit(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 2

	g, err := New(cfg, sink)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := g.OnPassStart(5); err != nil {
		t.Fatalf("OnPassStart() error: %v", err)
	}
	for _, batch := range singleResultBatches(5) {
		if err := g.OnBatchResult(batch); err != nil {
			t.Fatalf("OnBatchResult(%d) error: %v", batch.Index, err)
		}
	}
	if err := g.OnPassEnd(); err != nil {
		t.Fatalf("OnPassEnd() error: %v", err)
	}

	if len(sink.samples) != 2 {
		t.Fatalf("emitted %d samples, want 2", len(sink.samples))
	}
	if sink.samples[0] != "hypothesis a" || sink.samples[1] != "hypothesis b" {
		t.Errorf("samples not in index order: %v", sink.samples)
	}
	if g.SamplesPrinted() != 2 {
		t.Errorf("SamplesPrinted() = %d, want 2", g.SamplesPrinted())
	}
}

// TestSampleLimitZero verifies the boundary: limit 0 suppresses all
// sample printing.
func TestSampleLimitZero(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 0

	g, _ := New(cfg, sink)
	g.OnPassStart(3)
	for _, batch := range singleResultBatches(3) {
		g.OnBatchResult(batch)
	}
	g.OnPassEnd()

	if len(sink.samples) != 0 {
		t.Errorf("emitted %d samples with limit 0, want 0", len(sink.samples))
	}
}

// The default limit prints every sample.
func TestSampleLimitUnlimited(t *testing.T) {
	sink := &captureSink{}

	g, _ := New(DefaultConfig(), sink)
	g.OnPassStart(7)
	for _, batch := range singleResultBatches(7) {
		g.OnBatchResult(batch)
	}
	g.OnPassEnd()

	if len(sink.samples) != 7 {
		t.Errorf("emitted %d samples with unlimited config, want 7", len(sink.samples))
	}
}

// TestSampleLimitAcrossMultiResultBatches verifies the limit applies within
// a batch, not only at batch boundaries.
func TestSampleLimitAcrossMultiResultBatches(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 3

	g, _ := New(cfg, sink)
	g.OnPassStart(2)

	batch := models.Batch{Index: 1}
	for i := 0; i < 5; i++ {
		batch.Results = append(batch.Results, models.EvaluationResult{
			Hypothesis: "hyp",
			Reference:  "ref",
		})
	}
	g.OnBatchResult(batch)
	g.OnBatchResult(models.Batch{Index: 2, Results: batch.Results})
	g.OnPassEnd()

	if len(sink.samples) != 3 {
		t.Errorf("emitted %d samples, want 3", len(sink.samples))
	}
}

// With the progress indicator suppressed and interval 3, log lines appear
// exactly at batch indices 3 and 6 over 7 batches.
func TestSuppressedProgressLogInterval(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 0
	cfg.SuppressProgress = true
	cfg.LogInterval = 3

	g, _ := New(cfg, sink)
	g.OnPassStart(7)
	for _, batch := range singleResultBatches(7) {
		g.OnBatchResult(batch)
	}
	g.OnPassEnd()

	if len(sink.progress) != 0 {
		t.Errorf("progress updates emitted while suppressed: %v", sink.progress)
	}
	if len(sink.infos) != 2 {
		t.Fatalf("emitted %d log lines, want 2: %v", len(sink.infos), sink.infos)
	}
	if !strings.Contains(sink.infos[0], "batch 3/7") {
		t.Errorf("first log line = %q, want batch 3/7", sink.infos[0])
	}
	if !strings.Contains(sink.infos[1], "batch 6/7") {
		t.Errorf("second log line = %q, want batch 6/7", sink.infos[1])
	}
}

// TestProgressEmittedUnconditionally verifies a progress update per batch
// when suppression is off.
func TestProgressEmittedUnconditionally(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 0

	g, _ := New(cfg, sink)
	g.OnPassStart(4)
	for _, batch := range singleResultBatches(4) {
		g.OnBatchResult(batch)
	}
	g.OnPassEnd()

	if len(sink.progress) != 4 {
		t.Errorf("emitted %d progress updates, want 4", len(sink.progress))
	}
	if !strings.Contains(sink.progress[3], "4/4") {
		t.Errorf("final progress update = %q, want 4/4", sink.progress[3])
	}
	if len(sink.infos) != 0 {
		t.Errorf("unexpected log lines: %v", sink.infos)
	}
}

// TestEmptyPass verifies start-then-end with no batches emits nothing and
// cleans up.
func TestEmptyPass(t *testing.T) {
	sink := &captureSink{}

	g, _ := New(DefaultConfig(), sink)
	if err := g.OnPassStart(0); err != nil {
		t.Fatalf("OnPassStart() error: %v", err)
	}
	if err := g.OnPassEnd(); err != nil {
		t.Fatalf("OnPassEnd() error: %v", err)
	}

	if len(sink.samples) != 0 || len(sink.infos) != 0 || len(sink.progress) != 0 {
		t.Error("empty pass should emit no output")
	}
}

// TestSaveLogWritesRunFile verifies pass output is duplicated to a run log
// between OnPassStart and OnPassEnd.
func TestSaveLogWritesRunFile(t *testing.T) {
	dir := t.TempDir()
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.SuppressProgress = true
	cfg.SaveLog = true
	cfg.SaveDir = dir

	g, err := New(cfg, sink)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	g.OnPassStart(2)
	for _, batch := range singleResultBatches(2) {
		g.OnBatchResult(batch)
	}
	if err := g.OnPassEnd(); err != nil {
		t.Fatalf("OnPassEnd() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "validated batch 2/2") {
		t.Errorf("log line missing from run log: %q", content)
	}
	if !strings.Contains(content, "hypothesis a") {
		t.Errorf("sample missing from run log: %q", content)
	}
}

// An unwritable save directory produces a warning and the pass completes
// without file duplication.
func TestSaveLogUnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(parent, 0700)

	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.SaveLog = true
	cfg.SaveDir = filepath.Join(parent, "logs")

	g, err := New(cfg, sink)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := g.OnPassStart(1); err != nil {
		t.Fatalf("OnPassStart() must not fail on unwritable dir: %v", err)
	}
	if err := g.OnBatchResult(singleResultBatches(1)[0]); err != nil {
		t.Fatalf("OnBatchResult() error: %v", err)
	}
	if err := g.OnPassEnd(); err != nil {
		t.Fatalf("OnPassEnd() error: %v", err)
	}

	if len(sink.warns) == 0 {
		t.Error("expected a warning about the unwritable save directory")
	}
	if len(sink.samples) != 1 {
		t.Errorf("pass should continue on console: %d samples", len(sink.samples))
	}
}

// TestMalformedResultSkipped verifies a bad result is warned about and
// skipped without counting against the sample limit.
func TestMalformedResultSkipped(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 1

	g, _ := New(cfg, sink)
	g.OnPassStart(1)
	g.OnBatchResult(models.Batch{
		Index: 1,
		Results: []models.EvaluationResult{
			{ID: "0"}, // no hypothesis, no reference
			{ID: "1", Hypothesis: "good", Reference: "good"},
		},
	})
	g.OnPassEnd()

	if len(sink.warns) != 1 {
		t.Errorf("warns = %v, want one skip warning", sink.warns)
	}
	if len(sink.samples) != 1 || sink.samples[0] != "good" {
		t.Errorf("samples = %v, want the well-formed result", sink.samples)
	}
}

// TestStateMachine verifies the idle/running contract.
func TestStateMachine(t *testing.T) {
	sink := &captureSink{}
	g, _ := New(DefaultConfig(), sink)

	if err := g.OnBatchResult(models.Batch{Index: 1}); err == nil {
		t.Error("OnBatchResult while idle should fail")
	}
	if err := g.OnPassEnd(); err == nil {
		t.Error("OnPassEnd while idle should fail")
	}

	if err := g.OnPassStart(1); err != nil {
		t.Fatalf("OnPassStart() error: %v", err)
	}
	if err := g.OnPassStart(1); err == nil {
		t.Error("nested OnPassStart should fail")
	}

	if err := g.OnPassEnd(); err != nil {
		t.Fatalf("OnPassEnd() error: %v", err)
	}
	if err := g.OnPassEnd(); err == nil {
		t.Error("double OnPassEnd should fail")
	}
}

// TestCountersResetPerPass verifies the sample limit resets per validation
// pass, not per interval or process.
func TestCountersResetPerPass(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MaxSamples = 2

	g, _ := New(cfg, sink)

	for pass := 0; pass < 2; pass++ {
		g.OnPassStart(3)
		for _, batch := range singleResultBatches(3) {
			g.OnBatchResult(batch)
		}
		g.OnPassEnd()
	}

	if len(sink.samples) != 4 {
		t.Errorf("emitted %d samples over two passes, want 4 (2 per pass)", len(sink.samples))
	}
}

func TestNilSinkDiscards(t *testing.T) {
	g, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	g.OnPassStart(1)
	if err := g.OnBatchResult(singleResultBatches(1)[0]); err != nil {
		t.Errorf("OnBatchResult() error: %v", err)
	}
	if err := g.OnPassEnd(); err != nil {
		t.Errorf("OnPassEnd() error: %v", err)
	}
}
