// Package history persists validation pass summaries to a SQLite database
// so past runs can be listed and compared.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hnt4499/transval/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store manages the SQLite database of pass summaries.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates a Store at dbPath, creating the parent directory and the
// schema as needed. Pass ":memory:" for an in-memory store.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// RecordPass inserts one pass summary. A missing RunID is assigned here;
// the assigned ID is returned.
func (s *Store) RecordPass(ctx context.Context, summary models.PassSummary) (string, error) {
	runID := summary.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (
			id, started_at, completed_at, batches, results,
			samples_printed, skipped_results, corpus_bleu, mean_score,
			source_path, hypothesis_path, reference_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		summary.StartedAt,
		summary.CompletedAt,
		summary.Batches,
		summary.Results,
		summary.SamplesPrinted,
		summary.SkippedResults,
		summary.CorpusBLEU,
		summary.MeanScore,
		summary.SourcePath,
		summary.HypothesisPath,
		summary.ReferencePath,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record pass: %w", err)
	}

	return runID, nil
}

// RecentPasses returns up to limit pass summaries, most recent first.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]models.PassSummary, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, batches, results,
		       samples_printed, skipped_results, corpus_bleu, mean_score,
		       source_path, hypothesis_path, reference_path
		FROM passes
		ORDER BY completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var passes []models.PassSummary
	for rows.Next() {
		var p models.PassSummary
		if err := rows.Scan(
			&p.RunID,
			&p.StartedAt,
			&p.CompletedAt,
			&p.Batches,
			&p.Results,
			&p.SamplesPrinted,
			&p.SkippedResults,
			&p.CorpusBLEU,
			&p.MeanScore,
			&p.SourcePath,
			&p.HypothesisPath,
			&p.ReferencePath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pass row: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passes: %w", err)
	}

	return passes, nil
}

// Prune deletes passes completed more than keepDays ago and returns the
// number of rows removed. keepDays of 0 deletes everything.
func (s *Store) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays < 0 {
		return 0, fmt.Errorf("keep days must be >= 0, got %d", keepDays)
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM passes WHERE completed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune passes: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned passes: %w", err)
	}

	return removed, nil
}

// Count returns the total number of stored passes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count passes: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
