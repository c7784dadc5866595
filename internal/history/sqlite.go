package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/health-recommendation-engine/internal/domain"
)

// SQLiteStore records generation events in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent scans a row into a GenerationEvent struct.
func scanEvent(s scanner) (*GenerationEvent, error) {
	ev := &GenerationEvent{}
	var degraded int

	err := s.Scan(
		&ev.ID, &ev.SubjectID, &ev.GeneratedAt,
		&ev.Total, &ev.HighCount, &ev.MediumCount, &ev.LowCount,
		&degraded, &ev.FailureStage, &ev.FailureMsg, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.Degraded = degraded != 0
	return ev, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS generation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		high_count INTEGER NOT NULL DEFAULT 0,
		medium_count INTEGER NOT NULL DEFAULT 0,
		low_count INTEGER NOT NULL DEFAULT 0,
		degraded INTEGER NOT NULL DEFAULT 0,
		failure_stage TEXT DEFAULT '',
		failure_msg TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_subject ON generation_events(subject_id);
	CREATE INDEX IF NOT EXISTS idx_events_generated_at ON generation_events(generated_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Record stores one generation event derived from a recommendation set.
func (s *SQLiteStore) Record(ctx context.Context, set *domain.RecommendationSet) error {
	if set == nil {
		return fmt.Errorf("recommendation set is nil")
	}

	degraded := 0
	stage := ""
	msg := ""
	if set.Failure != nil {
		degraded = 1
		stage = set.Failure.Stage
		msg = set.Failure.Message
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_events (
			subject_id, generated_at, total, high_count, medium_count, low_count,
			degraded, failure_stage, failure_msg, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		set.SubjectID,
		set.GeneratedAt,
		set.Summary.Total,
		set.Summary.HighCount,
		set.Summary.MediumCount,
		set.Summary.LowCount,
		degraded,
		stage,
		msg,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation event: %w", err)
	}
	return nil
}

// RecentBySubject returns the most recent events for a subject, newest first.
func (s *SQLiteStore) RecentBySubject(ctx context.Context, subjectID string, limit int) ([]*GenerationEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, generated_at, total, high_count, medium_count, low_count,
		       degraded, failure_stage, failure_msg, created_at
		FROM generation_events
		WHERE subject_id = ?
		ORDER BY generated_at DESC, id DESC
		LIMIT ?
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*GenerationEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetStats returns aggregate counts over the recorded history.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(degraded), 0),
		       COUNT(DISTINCT subject_id)
		FROM generation_events
	`).Scan(&stats.TotalRuns, &stats.DegradedRuns, &stats.Subjects)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

// PruneBefore deletes events generated before the cutoff and returns the
// number removed.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM generation_events WHERE generated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
