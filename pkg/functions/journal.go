package functions

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
	"github.com/metahuman-os/workflow-memory/pkg/logging"
)

// DecisionKind labels a learning-gate outcome in the journal.
type DecisionKind string

const (
	DecisionLearned    DecisionKind = "learned"
	DecisionReinforced DecisionKind = "reinforced"
	DecisionRejected   DecisionKind = "rejected"

	eventUsage       = "usage"
	eventMaintenance = "maintenance"
)

// JournalEvent is one recorded observability event.
type JournalEvent struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Kind       string    `json:"kind"`
	FunctionID string    `json:"function_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// Journal persists gate decisions, usage events and maintenance reports to a
// SQLite database for observability. Rejection reasons land here and nowhere
// else; they are never surfaced to the end user. All Log methods are nil-safe
// and swallow write failures, since observability must never break the host
// pipeline.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (and if needed initializes) the journal database at path.
// Use ":memory:" for an ephemeral journal.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to open journal database"),
			errors.Fields{"path": path},
		)
	}

	// WAL mode for better concurrency with the host process
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to enable WAL mode")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		kind TEXT NOT NULL,
		function_id TEXT,
		reason TEXT,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_function ON events(function_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to initialize journal schema")
	}

	return &Journal{db: db}, nil
}

// LogDecision records one learning-gate outcome.
func (j *Journal) LogDecision(ctx context.Context, kind DecisionKind, functionID, reason string) {
	if j == nil {
		return
	}
	j.insert(ctx, string(kind), functionID, reason, "")
}

// LogUsage records one usage event for a function.
func (j *Journal) LogUsage(ctx context.Context, functionID string, success bool) {
	if j == nil {
		return
	}
	details := `{"success":false}`
	if success {
		details = `{"success":true}`
	}
	j.insert(ctx, eventUsage, functionID, "", details)
}

// LogMaintenance records the summary of one maintenance pass.
func (j *Journal) LogMaintenance(ctx context.Context, report MaintenanceReport) {
	if j == nil {
		return
	}
	details, err := json.Marshal(report)
	if err != nil {
		return
	}
	j.insert(ctx, eventMaintenance, "", "", string(details))
}

func (j *Journal) insert(ctx context.Context, kind, functionID, reason, details string) {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (kind, function_id, reason, details) VALUES (?, ?, ?, ?)",
		kind, functionID, reason, details)
	if err != nil {
		logging.GetLogger().Warn(ctx, "failed to write journal event: %v", err)
	}
}

// Recent returns the newest events, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEvent, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, created_at, kind, COALESCE(function_id, ''), COALESCE(reason, ''), COALESCE(details, '') FROM events ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query journal")
	}
	defer rows.Close()

	var events []JournalEvent
	for rows.Next() {
		var event JournalEvent
		if err := rows.Scan(&event.ID, &event.CreatedAt, &event.Kind, &event.FunctionID, &event.Reason, &event.Details); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan journal event")
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
