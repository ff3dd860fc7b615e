// Package tracker keeps a SQLite log of analyze requests and how they were
// served. It is diagnostic only: cache and limiter state never come from it.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/memogate/pkg/models"
)

// Tracker records and queries request outcomes.
type Tracker interface {
	// Record stores one request outcome.
	Record(ctx context.Context, rec models.RequestRecord) error
	// Recent returns the newest records, optionally filtered by client.
	Recent(ctx context.Context, clientID string, limit int) ([]models.RequestRecord, error)
	// Summary returns counts per client and outcome, optionally filtered by client.
	Summary(ctx context.Context, clientID string) ([]models.RequestSummary, error)
	// Prune deletes records created before the given time.
	Prune(ctx context.Context, before time.Time) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS request_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	client_id TEXT NOT NULL,
	fingerprint TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_request_log_client_time ON request_log(client_id, created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores a request outcome.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO request_log (request_id, client_id, fingerprint, outcome, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.ClientID, rec.Fingerprint, string(rec.Outcome), rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, clientID string, limit int) ([]models.RequestRecord, error) {
	query := `SELECT id, request_id, client_id, fingerprint, outcome, latency_ms, created_at FROM request_log`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var records []models.RequestRecord
	for rows.Next() {
		var r models.RequestRecord
		var outcome string
		if err := rows.Scan(&r.ID, &r.RequestID, &r.ClientID, &r.Fingerprint, &outcome, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		r.Outcome = models.Outcome(outcome)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary returns request counts grouped by client and outcome.
func (t *SQLiteTracker) Summary(ctx context.Context, clientID string) ([]models.RequestSummary, error) {
	query := `SELECT client_id, outcome, COUNT(*), AVG(latency_ms) FROM request_log`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` GROUP BY client_id, outcome ORDER BY client_id, outcome`

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.RequestSummary
	for rows.Next() {
		var s models.RequestSummary
		var outcome string
		if err := rows.Scan(&s.ClientID, &outcome, &s.RequestCount, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Outcome = models.Outcome(outcome)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Prune deletes records created before the given time.
func (t *SQLiteTracker) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM request_log WHERE created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("prune requests: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
