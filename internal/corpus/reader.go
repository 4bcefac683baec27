// Package corpus loads evaluation results from parallel plain-text files or
// JSONL, and slices them into batches for a validation pass.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/hnt4499/transval/internal/models"
)

// maxLineBytes bounds a single corpus line. Sentences beyond this are
// truncated by the scanner and reported as an error.
const maxLineBytes = 1024 * 1024

// Dataset holds the evaluation results of one corpus, in input order.
type Dataset struct {
	Results []models.EvaluationResult

	// Skipped counts malformed input lines dropped during loading.
	Skipped int
}

// Len returns the number of results in the dataset.
func (d *Dataset) Len() int {
	return len(d.Results)
}

// Batches slices the dataset into batches of at most size results, with
// 1-based batch indices. The last batch may be ragged. A size below 1
// falls back to 1.
func (d *Dataset) Batches(size int) []models.Batch {
	if size < 1 {
		size = 1
	}

	var batches []models.Batch
	for start := 0; start < len(d.Results); start += size {
		end := start + size
		if end > len(d.Results) {
			end = len(d.Results)
		}
		batches = append(batches, models.Batch{
			Index:   len(batches) + 1,
			Results: d.Results[start:end],
		})
	}
	return batches
}

// LoadParallel loads a dataset from parallel line-aligned text files. The
// hypothesis and reference files are required and must have the same number
// of lines; the source file is optional (empty path) and, when given, must
// align too.
func LoadParallel(srcPath, hypPath, refPath string) (*Dataset, error) {
	hyps, err := readLines(hypPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hypothesis file: %w", err)
	}

	refs, err := readLines(refPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	if len(hyps) != len(refs) {
		return nil, fmt.Errorf("line count mismatch: %d hypotheses vs %d references", len(hyps), len(refs))
	}

	var srcs []string
	if srcPath != "" {
		srcs, err = readLines(srcPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file: %w", err)
		}
		if len(srcs) != len(hyps) {
			return nil, fmt.Errorf("line count mismatch: %d sources vs %d hypotheses", len(srcs), len(hyps))
		}
	}

	ds := &Dataset{Results: make([]models.EvaluationResult, 0, len(hyps))}
	for i := range hyps {
		result := models.EvaluationResult{
			ID:         strconv.Itoa(i),
			Hypothesis: hyps[i],
			Reference:  refs[i],
		}
		if srcs != nil {
			result.Source = srcs[i]
		}
		ds.Results = append(ds.Results, result)
	}

	return ds, nil
}

// jsonlRecord is the on-disk shape of a JSONL evaluation result.
type jsonlRecord struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Hypothesis string   `json:"hypothesis"`
	Reference  string   `json:"reference"`
	Score      *float64 `json:"score"`
}

// LoadJSONL loads a dataset from a JSONL file with one evaluation result
// per line. Records may carry a precomputed score; records without one are
// scored later by the runner. Malformed lines are counted in Skipped and
// dropped rather than failing the load.
func LoadJSONL(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	ds := &Dataset{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record jsonlRecord
		if err := json.Unmarshal(line, &record); err != nil {
			ds.Skipped++
			continue
		}
		if record.Hypothesis == "" && record.Reference == "" {
			ds.Skipped++
			continue
		}

		id := record.ID
		if id == "" {
			id = strconv.Itoa(lineNo - 1)
		}

		result := models.EvaluationResult{
			ID:         id,
			Source:     record.Source,
			Hypothesis: record.Hypothesis,
			Reference:  record.Reference,
		}
		if record.Score != nil {
			result.Score = *record.Score
			result.Scored = true
		}
		ds.Results = append(ds.Results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan JSONL file: %w", err)
	}

	return ds, nil
}

// readLines reads a text file into a slice of lines.
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
