// Package ledger journals committed token usage to SQLite.
//
// The quota store answers "how much has this caller used" fast; the ledger
// is the durable, per-request record behind it, kept for arrears billing
// and reconciliation. Writes happen after the response has been delivered,
// so a ledger failure is logged by the caller and never surfaces to the
// client.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one request's final usage record.
type Entry struct {
	RequestID        string
	CallerID         string
	ModelID          string
	Provider         string
	TaskType         string
	SegmentCount     int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CreatedAt        time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS usage_entries (
	request_id        TEXT PRIMARY KEY,
	caller_id         TEXT NOT NULL,
	model_id          TEXT NOT NULL,
	provider          TEXT NOT NULL,
	task_type         TEXT NOT NULL,
	segment_count     INTEGER NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens      INTEGER NOT NULL,
	created_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_caller ON usage_entries(caller_id, created_at);
`

// Store is a SQLite-backed usage journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and ensures the
// schema exists. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	// SQLite handles one writer at a time; serialize access through the
	// pool instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one usage entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_entries (
			request_id, caller_id, model_id, provider, task_type,
			segment_count, prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.CallerID, e.ModelID, e.Provider, e.TaskType,
		e.SegmentCount, e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record usage entry: %w", err)
	}
	return nil
}

// TotalForCaller sums the committed tokens for one caller. Used by
// reconciliation against the quota store.
func (s *Store) TotalForCaller(ctx context.Context, callerID string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(total_tokens) FROM usage_entries WHERE caller_id = ?`, callerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage for %s: %w", callerID, err)
	}
	return total.Int64, nil
}

// Recent returns the newest entries for a caller, newest first.
func (s *Store) Recent(ctx context.Context, callerID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, caller_id, model_id, provider, task_type,
		       segment_count, prompt_tokens, completion_tokens, total_tokens, created_at
		FROM usage_entries
		WHERE caller_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.RequestID, &e.CallerID, &e.ModelID, &e.Provider, &e.TaskType,
			&e.SegmentCount, &e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usage entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
