// Package scorer computes sentence and corpus BLEU for evaluation results
// that arrive without a score.
package scorer

import (
	"context"
	"math"
	"strings"

	"github.com/hnt4499/transval/internal/models"
)

// maxOrder is the highest n-gram order used by BLEU.
const maxOrder = 4

// Scorer computes a scalar quality score for one evaluation result.
type Scorer interface {
	Name() string
	Score(ctx context.Context, result models.EvaluationResult) (float64, error)
}

// Tokenize lowercases and splits a sentence on whitespace.
func Tokenize(sentence string) []string {
	return strings.Fields(strings.ToLower(sentence))
}

// SentenceBLEU computes smoothed sentence-level BLEU of a hypothesis
// against a single reference. Identical non-empty sentences score 1.0; an
// empty hypothesis scores 0. N-gram orders with zero matches are
// floor-smoothed so short or disjoint pairs score near zero rather than
// collapsing the geometric mean.
func SentenceBLEU(hypothesis, reference string) float64 {
	hyp := Tokenize(hypothesis)
	ref := Tokenize(reference)

	var matches, totals [maxOrder]int
	for n := 1; n <= maxOrder; n++ {
		m, t := ngramOverlap(hyp, ref, n)
		matches[n-1] = m
		totals[n-1] = t
	}

	return bleuFromCounts(matches, totals, len(hyp), len(ref))
}

// CorpusBLEU accumulates n-gram statistics over many sentence pairs and
// computes the pooled corpus-level BLEU.
type CorpusBLEU struct {
	matches [maxOrder]int
	totals  [maxOrder]int
	hypLen  int
	refLen  int
	pairs   int
}

// Add accumulates one hypothesis/reference pair.
func (c *CorpusBLEU) Add(hypothesis, reference string) {
	hyp := Tokenize(hypothesis)
	ref := Tokenize(reference)

	for n := 1; n <= maxOrder; n++ {
		m, t := ngramOverlap(hyp, ref, n)
		c.matches[n-1] += m
		c.totals[n-1] += t
	}
	c.hypLen += len(hyp)
	c.refLen += len(ref)
	c.pairs++
}

// Pairs returns the number of accumulated sentence pairs.
func (c *CorpusBLEU) Pairs() int {
	return c.pairs
}

// Score computes BLEU over everything accumulated so far. Returns 0 when
// nothing has been added.
func (c *CorpusBLEU) Score() float64 {
	if c.pairs == 0 {
		return 0
	}
	return bleuFromCounts(c.matches, c.totals, c.hypLen, c.refLen)
}

// BLEUScorer scores a single result with smoothed sentence BLEU.
type BLEUScorer struct{}

// Name identifies the scorer.
func (BLEUScorer) Name() string {
	return "bleu"
}

// Score computes sentence BLEU for the result.
func (BLEUScorer) Score(ctx context.Context, result models.EvaluationResult) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return SentenceBLEU(result.Hypothesis, result.Reference), nil
}

// ngramOverlap counts clipped n-gram matches between hypothesis and
// reference, and the total number of hypothesis n-grams.
func ngramOverlap(hyp, ref []string, n int) (matches, total int) {
	hypCounts := ngramCounts(hyp, n)
	refCounts := ngramCounts(ref, n)

	for gram, count := range hypCounts {
		total += count
		if refCount := refCounts[gram]; refCount < count {
			matches += refCount
		} else {
			matches += count
		}
	}
	return matches, total
}

// ngramCounts counts the n-grams of a token sequence.
func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

// bleuFromCounts computes BLEU from pooled per-order counts with a brevity
// penalty. Orders the hypothesis is too short to produce are excluded from
// the geometric mean; orders with zero matches are smoothed to
// 1/(2*total).
func bleuFromCounts(matches, totals [maxOrder]int, hypLen, refLen int) float64 {
	if hypLen == 0 {
		return 0
	}

	logSum := 0.0
	orders := 0
	for n := 0; n < maxOrder; n++ {
		if totals[n] == 0 {
			continue
		}
		orders++
		precision := float64(matches[n]) / float64(totals[n])
		if matches[n] == 0 {
			precision = 1.0 / float64(2*totals[n])
		}
		logSum += math.Log(precision)
	}
	if orders == 0 {
		return 0
	}

	bleu := math.Exp(logSum / float64(orders))

	if hypLen < refLen {
		bleu *= math.Exp(1.0 - float64(refLen)/float64(hypLen))
	}

	return bleu
}
