package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/westrun/internal/tools"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial schema
// 1 - index on (sim_root, tool) for filtered history
const currentSchemaVersion = 1

// Journal is a SQLite-backed invocation log.
type Journal struct {
	db *sql.DB
}

var _ tools.Recorder = (*Journal)(nil)

// Open creates or opens the journal at path and applies pragmas and
// migrations. Safe to call repeatedly on the same file.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite has one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_invocations_root_tool
			ON invocations(sim_root, tool)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// RecordInvocation stores a completed invocation. Recording the same
// invocation ID twice is a no-op.
func (j *Journal) RecordInvocation(ctx context.Context, r *tools.Result) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO invocations
		(id, tool, sim_root, command_line, exit_code, started_at, duration_ns, stdout_bytes, stderr_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.InvocationID,
		r.Tool,
		r.SimRoot,
		r.CommandLine,
		r.ExitCode,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(r.Duration),
		len(r.Stdout),
		len(r.Stderr),
	)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// Entry is one journal row.
type Entry struct {
	Seq         int64         `json:"seq"`
	ID          string        `json:"id"`
	Tool        string        `json:"tool"`
	SimRoot     string        `json:"sim_root"`
	CommandLine string        `json:"command_line"`
	ExitCode    int           `json:"exit_code"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	StdoutBytes int           `json:"stdout_bytes"`
	StderrBytes int           `json:"stderr_bytes"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	SimRoot string
	Tool    string
	// Limit caps the number of rows; <= 0 means no limit.
	Limit int
}

// List returns matching entries, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.SimRoot != "" {
		where = append(where, "sim_root = ?")
		args = append(args, f.SimRoot)
	}
	if f.Tool != "" {
		where = append(where, "tool = ?")
		args = append(args, f.Tool)
	}

	query := `SELECT seq, id, tool, sim_root, command_line, exit_code, started_at,
		duration_ns, stdout_bytes, stderr_bytes FROM invocations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			started string
			dur     int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Tool, &e.SimRoot, &e.CommandLine, &e.ExitCode,
			&started, &dur, &e.StdoutBytes, &e.StderrBytes); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at of %s: %w", e.ID, err)
		}
		e.Duration = time.Duration(dur)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	return out, nil
}
