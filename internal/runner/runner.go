// Package runner drives a single validation pass: it batches a dataset,
// scores results that arrived unscored, feeds every batch through the
// output governor, and aggregates the pass summary.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/hnt4499/transval/internal/corpus"
	"github.com/hnt4499/transval/internal/governor"
	"github.com/hnt4499/transval/internal/models"
	"github.com/hnt4499/transval/internal/scorer"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 32

// Runner executes validation passes. The governor is driven synchronously
// from the pass loop; the runner spawns no goroutines of its own.
type Runner struct {
	// Scorer fills in scores for results that arrived without one. Nil
	// leaves such results unscored.
	Scorer scorer.Scorer

	// Governor gates the output of the pass. Required.
	Governor *governor.Governor

	// BatchSize is the number of results per batch; DefaultBatchSize when
	// not positive.
	BatchSize int
}

// Run executes one validation pass over the dataset. Cancellation is
// checked between batches; a cancelled pass still goes through OnPassEnd so
// the governor's file sink is released, and the partial summary is returned
// alongside the context error.
func (r *Runner) Run(ctx context.Context, dataset *corpus.Dataset) (models.PassSummary, error) {
	summary := models.PassSummary{StartedAt: time.Now()}

	if r.Governor == nil {
		return summary, fmt.Errorf("runner requires a governor")
	}
	if dataset == nil {
		return summary, fmt.Errorf("runner requires a dataset")
	}

	batchSize := r.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	batches := dataset.Batches(batchSize)

	if err := r.Governor.OnPassStart(len(batches)); err != nil {
		return summary, err
	}

	var pooled scorer.CorpusBLEU
	var scoreSum float64
	scored := 0

	passErr := func() error {
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				return err
			}

			for i := range batch.Results {
				result := &batch.Results[i]
				pooled.Add(result.Hypothesis, result.Reference)

				if !result.Scored && r.Scorer != nil {
					score, err := r.Scorer.Score(ctx, *result)
					if err != nil {
						summary.SkippedResults++
						continue
					}
					result.Score = score
					result.Scored = true
				}
				if result.Scored {
					scoreSum += result.Score
					scored++
				}
			}

			if err := r.Governor.OnBatchResult(batch); err != nil {
				return err
			}

			summary.Batches++
			summary.Results += batch.Size()
		}
		return nil
	}()

	if err := r.Governor.OnPassEnd(); err != nil && passErr == nil {
		passErr = err
	}

	summary.CompletedAt = time.Now()
	summary.SamplesPrinted = r.Governor.SamplesPrinted()
	summary.CorpusBLEU = pooled.Score()
	if scored > 0 {
		summary.MeanScore = scoreSum / float64(scored)
	}

	return summary, passErr
}
