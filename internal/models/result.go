// Package models defines the core data types shared across transval:
// evaluation results produced by a validation pass, the batches they arrive
// in, and the per-pass summary recorded when a pass completes.
package models

import "time"

// EvaluationResult represents one validation example's output: a source
// sequence, the model's hypothesis, the reference translation, and a scalar
// quality score. Results are read-only once produced; nothing downstream
// mutates them except the runner filling in a missing score.
type EvaluationResult struct {
	// ID identifies the example within its corpus (line number or a
	// caller-supplied identifier).
	ID string

	// Source is the input sequence. May be empty when the corpus was loaded
	// without a source file.
	Source string

	// Hypothesis is the model output being evaluated.
	Hypothesis string

	// Reference is the gold translation the hypothesis is scored against.
	Reference string

	// Score is the scalar quality score for this example.
	Score float64

	// Scored reports whether Score holds a real value. Results loaded from
	// corpora without scores have Scored == false until the runner scores
	// them.
	Scored bool
}

// Batch groups evaluation results as they are delivered to the output
// governor. Index is 1-based within the current validation pass.
type Batch struct {
	Index   int
	Results []EvaluationResult
}

// Size returns the number of results in the batch.
func (b Batch) Size() int {
	return len(b.Results)
}

// PassSummary aggregates one full validation pass. It is returned by the
// runner and optionally persisted to the pass-history store.
type PassSummary struct {
	// RunID uniquely identifies the pass. Left empty by the runner; the
	// history store assigns one when recording.
	RunID string

	StartedAt   time.Time
	CompletedAt time.Time

	// Batches and Results count what the pass actually processed, which may
	// be fewer than the corpus contains if the pass was cancelled.
	Batches int
	Results int

	// SamplesPrinted is the number of sample triples the governor emitted.
	SamplesPrinted int

	// SkippedResults counts results dropped due to scoring or formatting
	// problems. Skips never abort a pass.
	SkippedResults int

	// CorpusBLEU is the pooled corpus-level BLEU over all processed results.
	CorpusBLEU float64

	// MeanScore is the mean per-sentence score over scored results.
	MeanScore float64

	// Input locations, recorded for provenance.
	SourcePath     string
	HypothesisPath string
	ReferencePath  string
}

// Duration returns the wall-clock duration of the pass.
func (s PassSummary) Duration() time.Duration {
	return s.CompletedAt.Sub(s.StartedAt)
}
