// Package history persists validation run summaries to a SQLite database
// so failure trends survive across invocations. The store records one row
// per run plus one row per failed example and prunes old runs past the
// configured retention.
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

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/docval/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is one persisted run summary.
type RunRecord struct {
	RunID              string
	GeneratedAt        time.Time
	TotalExamples      int
	Successes          int
	Failures           int
	TimedOut           int
	SuccessRate        float64
	ErrorViolations    int
	WarningViolations  int
	InfoViolations     int
	ExtractionWarnings int
	Clean              bool
}

// FailureRecord is one persisted failed example.
type FailureRecord struct {
	RunID        string
	ExampleID    string
	SourceFile   string
	StartLine    int
	EndLine      int
	Kind         string
	Status       string
	ErrorKind    string
	ErrorMessage string
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the history database at dbPath and applies
// the schema. The parent directory is created if needed.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so the remaining pragmas wait on
	// locks held by a concurrent run instead of failing.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff on
// "database is locked" errors during concurrent initialization.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists one report: the run summary plus a failure row for
// every example that did not succeed. The insert is transactional, so a
// run is either fully recorded or absent.
func (s *Store) RecordRun(ctx context.Context, report *models.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := report.Summary
	clean := 0
	if report.Clean() {
		clean = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, total_examples, successes, failures,
			timed_out, success_rate, error_violations, warning_violations,
			info_violations, extraction_warnings, clean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.GeneratedAt, summary.TotalExamples, summary.Successes,
		summary.Failures, summary.TimedOut, summary.SuccessRate,
		summary.ViolationsBySeverity[models.SeverityError],
		summary.ViolationsBySeverity[models.SeverityWarning],
		summary.ViolationsBySeverity[models.SeverityInfo],
		summary.ExtractionWarnings, clean)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, outcome := range report.Results {
		if outcome.Result.Succeeded() {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, example_id, source_file, start_line,
				end_line, kind, status, error_kind, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, outcome.Example.ID, outcome.Example.SourceFile,
			outcome.Example.StartLine, outcome.Example.EndLine,
			string(outcome.Example.Kind), outcome.Result.Status,
			string(outcome.Result.ErrorKind), outcome.Result.ErrorMessage)
		if err != nil {
			return fmt.Errorf("insert failure for %s: %w", outcome.Example.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Prune deletes all but the keepRuns most recent runs. Failure rows go
// with their run via the cascade. keepRuns <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keepRuns int) (int64, error) {
	if keepRuns <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY generated_at DESC, id DESC LIMIT ?
		)`, keepRuns)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}
	return deleted, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `
		SELECT run_id, generated_at, total_examples, successes, failures,
			timed_out, success_rate, error_violations, warning_violations,
			info_violations, extraction_warnings, clean
		FROM runs ORDER BY generated_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var r RunRecord
		var clean int
		err := rows.Scan(&r.RunID, &r.GeneratedAt, &r.TotalExamples, &r.Successes,
			&r.Failures, &r.TimedOut, &r.SuccessRate, &r.ErrorViolations,
			&r.WarningViolations, &r.InfoViolations, &r.ExtractionWarnings, &clean)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Clean = clean != 0
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetFailures returns the failure rows for one run in insertion order.
func (s *Store) GetFailures(ctx context.Context, runID string) ([]*FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, example_id, source_file, start_line, end_line,
			kind, status, error_kind, error_message
		FROM failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []*FailureRecord
	for rows.Next() {
		var f FailureRecord
		err := rows.Scan(&f.RunID, &f.ExampleID, &f.SourceFile, &f.StartLine,
			&f.EndLine, &f.Kind, &f.Status, &f.ErrorKind, &f.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, &f)
	}
	return failures, rows.Err()
}

// TopFailingFiles aggregates failure counts per source file across all
// retained runs, most failing first.
func (s *Store) TopFailingFiles(ctx context.Context, limit int) (map[string]int, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_file, COUNT(*) AS n
		FROM failures GROUP BY source_file ORDER BY n DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failing files: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var file string
		var n int
		if err := rows.Scan(&file, &n); err != nil {
			return nil, fmt.Errorf("scan failing file: %w", err)
		}
		counts[file] = n
	}
	return counts, rows.Err()
}
