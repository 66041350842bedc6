package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/redwiki/redwiki/internal/model"
)

// RunDB stores export run records in a SQLite database.
//
// Design decision: We use one database file for all servers rather than
// one per server because the history view compares runs across servers,
// and a single file keeps backup/cleanup trivial.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Open opens or creates a RunDB under the given directory.
func Open(dbDir string) (*RunDB, error) {
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, "redwiki.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if err := rdb.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return rdb, nil
}

// migrate creates the schema if it does not exist.
func (r *RunDB) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS export_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	server_url  TEXT    NOT NULL,
	output_dir  TEXT    NOT NULL,
	started_at  TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	projects    INTEGER NOT NULL,
	pages       INTEGER NOT NULL,
	attachments INTEGER NOT NULL,
	warnings    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_runs_started_at ON export_runs(started_at);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SaveRun inserts a run record and returns its row ID.
func (r *RunDB) SaveRun(ctx context.Context, rec *model.RunRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO export_runs (server_url, output_dir, started_at, duration_ms, projects, pages, attachments, warnings)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ServerURL,
		rec.OutputDir,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Duration.Milliseconds(),
		rec.Projects,
		rec.Pages,
		rec.Attachments,
		rec.Warnings,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (r *RunDB) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, server_url, output_dir, started_at, duration_ms, projects, pages, attachments, warnings
FROM export_runs
ORDER BY started_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var (
			rec        model.RunRecord
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ServerURL,
			&rec.OutputDir,
			&startedAt,
			&durationMS,
			&rec.Projects,
			&rec.Pages,
			&rec.Attachments,
			&rec.Warnings,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if t, perr := time.Parse(time.RFC3339Nano, startedAt); perr == nil {
			rec.StartedAt = t
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (r *RunDB) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *RunDB) Path() string {
	return r.dbPath
}
