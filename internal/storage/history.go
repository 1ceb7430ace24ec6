// Package storage persists completed analysis results to a local SQLite
// database so history survives process restarts. Writes are best-effort
// from the orchestrator's perspective; only the CLI reads this data.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/oversightlabs/oversight/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_history (
    id TEXT PRIMARY KEY,
    file_path TEXT NOT NULL DEFAULT '',
    tool_name TEXT NOT NULL DEFAULT '',
    decision TEXT NOT NULL,
    success INTEGER NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    latency_ms INTEGER NOT NULL DEFAULT 0,
    instance_id TEXT NOT NULL DEFAULT '',
    completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_completed_at ON analysis_history(completed_at);
CREATE INDEX IF NOT EXISTS idx_history_file_path ON analysis_history(file_path);
`

// HistoryEntry is one persisted analysis outcome.
type HistoryEntry struct {
	ID          string
	FilePath    string
	ToolName    string
	Decision    types.Decision
	Success     bool
	Reason      string
	LatencyMS   int64
	InstanceID  string
	CompletedAt time.Time
}

// History is the SQLite-backed analysis history store.
type History struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a completed result. Recording the same ID twice is an
// error; the orchestrator writes each result exactly once.
func (h *History) Record(ctx context.Context, req *types.AnalysisRequest, result *types.AnalysisResult, instanceID string) error {
	query := `
		INSERT INTO analysis_history (
			id, file_path, tool_name, decision, success,
			reason, latency_ms, instance_id, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := h.db.ExecContext(ctx, query,
		result.ID,
		req.FilePath,
		req.ToolName,
		string(result.Decision),
		result.Success,
		result.Reason,
		result.DurationMS,
		instanceID,
		result.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis %s: %w", result.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, file_path, tool_name, decision, success,
		       reason, latency_ms, instance_id, completed_at
		FROM analysis_history
		ORDER BY completed_at DESC
		LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ForFile returns all entries for a file path, newest first.
func (h *History) ForFile(ctx context.Context, filePath string) ([]*HistoryEntry, error) {
	query := `
		SELECT id, file_path, tool_name, decision, success,
		       reason, latency_ms, instance_id, completed_at
		FROM analysis_history
		WHERE file_path = ?
		ORDER BY completed_at DESC
	`
	rows, err := h.db.QueryContext(ctx, query, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", filePath, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CleanupOlderThan deletes entries completed before now-maxAge and
// returns the number deleted.
func (h *History) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UTC()
	res, err := h.db.ExecContext(ctx, `DELETE FROM analysis_history WHERE completed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup analysis history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(n), nil
}

func scanEntries(rows *sql.Rows) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var decision string
		if err := rows.Scan(&e.ID, &e.FilePath, &e.ToolName, &decision, &e.Success,
			&e.Reason, &e.LatencyMS, &e.InstanceID, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Decision = types.Decision(decision)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return entries, nil
}
