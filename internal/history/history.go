// Package history keeps a local journal of publish runs in a sqlite database
// under the workspace directory. It is append-mostly: the publish command
// records each run, the history command reads them back.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TrashHobbit/modelkit/internal/publish"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	repo TEXT NOT NULL,
	started TEXT NOT NULL,
	finished TEXT NOT NULL,
	uploaded INTEGER NOT NULL,
	missing INTEGER NOT NULL,
	failed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_items (
	run_id TEXT NOT NULL REFERENCES runs(id),
	kind TEXT NOT NULL,
	repo_path TEXT NOT NULL,
	state TEXT NOT NULL,
	files INTEGER NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS run_items_run_id ON run_items(run_id);
`

// Run is one recorded publish run.
type Run struct {
	ID       string
	Repo     string
	Started  time.Time
	Finished time.Time
	Uploaded int
	Missing  int
	Failed   int
}

// ItemRecord is one manifest item outcome within a run.
type ItemRecord struct {
	RunID    string
	Kind     string
	RepoPath string
	State    string
	Files    int
	Detail   string
}

// Journal is a sqlite-backed run log.
type Journal struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if needed and
// ensures the schema exists.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores a publish report and its per-item results atomically.
func (j *Journal) Record(ctx context.Context, report publish.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, repo, started, finished, uploaded, missing, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Repo,
		report.Started.UTC().Format(time.RFC3339),
		report.Finished.UTC().Format(time.RFC3339),
		report.Uploaded(), report.Missing(), report.Failed(),
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", report.RunID, err)
	}

	for _, res := range report.Results {
		detail := res.Note
		if res.Err != nil {
			detail = res.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, kind, repo_path, state, files, detail)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, string(res.Item.Kind), res.Item.RepoPath,
			string(res.State), res.Files, detail,
		)
		if err != nil {
			return fmt.Errorf("history: insert item %s: %w", res.Item.RepoPath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, repo, started, finished, uploaded, missing, failed
		FROM runs ORDER BY started DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Repo, &started, &finished,
			&run.Uploaded, &run.Missing, &run.Failed); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.Started, _ = time.Parse(time.RFC3339, started)
		run.Finished, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Items returns the per-item results of one run in insertion order.
func (j *Journal) Items(ctx context.Context, runID string) ([]ItemRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, kind, repo_path, state, files, detail
		 FROM run_items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var item ItemRecord
		if err := rows.Scan(&item.RunID, &item.Kind, &item.RepoPath,
			&item.State, &item.Files, &item.Detail); err != nil {
			return nil, fmt.Errorf("history: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
