package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lodeworks/lode/internal/resource"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed fallback event log. It mirrors the read
// surface of Log (Stats, Recent, Clear) so the CLI can inspect history
// recorded by a long-running embedding after the fact.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the event database at path. Applies WAL mode,
// a busy timeout, and the schema. Idempotent: safe to call repeatedly
// on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to event database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY on concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: slog.Default()}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts an event. Duplicate event ids are silently ignored, so
// replaying a recorder feed is idempotent.
func (s *Store) Append(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fallback_events (id, resource, kind, outcome, attempts, at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Resource,
		string(e.Kind),
		string(e.Outcome),
		e.Attempts,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.ID, err)
	}
	return nil
}

// Record implements Recorder. Append failures are logged, not
// propagated: the in-memory log stays authoritative for the session and
// persistence is best effort.
func (s *Store) Record(e Event) {
	if err := s.Append(context.Background(), e); err != nil {
		s.logger.Error("event persistence failed", "event_id", e.ID, "error", err)
	}
}

// Recent returns up to limit events, most recent first. A non-positive
// limit returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, resource, kind, outcome, attempts, at
		FROM fallback_events
		ORDER BY at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e       Event
			kind    string
			outcome string
			at      string
		)
		if err := rows.Scan(&e.ID, &e.Resource, &kind, &outcome, &e.Attempts, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = resource.Kind(kind)
		e.Outcome = Outcome(outcome)
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Stats aggregates the whole stored log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'fallback_used' AND kind = 'chunk' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'fallback_used' AND kind = 'component' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome LIKE 'retried_%' THEN attempts - 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome IN ('fallback_used', 'retried_then_succeeded') THEN 1 ELSE 0 END), 0)
		FROM fallback_events
	`)

	var st Stats
	if err := row.Scan(
		&st.TotalEvents,
		&st.ChunkFallbacks,
		&st.ComponentFallbacks,
		&st.RetryAttempts,
		&st.SuccessfulFallbacks,
	); err != nil {
		return Stats{}, fmt.Errorf("aggregate events: %w", err)
	}
	return st, nil
}

// Clear deletes all stored events.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fallback_events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}
