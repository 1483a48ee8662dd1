package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no run matches the requested identifier
var ErrNotFound = errors.New("history: run not found")

// Entry is one completed transcription run, successful or failed
type Entry struct {
	ID           int64
	RunID        string
	Source       string
	Language     string
	Format       string
	Device       string
	DurationS    float64
	SegmentCount int
	Success      bool
	ErrorKind    string
	OutputPath   string
	CreatedAt    time.Time
}

// Store persists transcription run history in SQLite
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL UNIQUE,
    source        TEXT NOT NULL,
    language      TEXT NOT NULL,
    format        TEXT NOT NULL,
    device        TEXT NOT NULL,
    duration_s    REAL NOT NULL,
    segment_count INTEGER NOT NULL,
    success       INTEGER NOT NULL,
    error_kind    TEXT NOT NULL DEFAULT '',
    output_path   TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
`

// Open initializes or connects to the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a completed run and returns it with its assigned ID
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, source, language, format, device,
            duration_s, segment_count, success, error_kind, output_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Source,
		entry.Language,
		entry.Format,
		entry.Device,
		entry.DurationS,
		entry.SegmentCount,
		boolToInt(entry.Success),
		entry.ErrorKind,
		entry.OutputPath,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return &entry, nil
}

// List returns the most recent runs, newest first. A limit of zero or
// less returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, source, language, format, device,
        duration_s, segment_count, success, error_kind, output_path, created_at
        FROM runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// GetByRunID returns the run with the given pipeline run identifier
func (s *Store) GetByRunID(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, run_id, source, language, format, device,
            duration_s, segment_count, success, error_kind, output_path, created_at
            FROM runs WHERE run_id = ?`,
		runID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var success int
	var createdAt string
	err := row.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Source,
		&entry.Language,
		&entry.Format,
		&entry.Device,
		&entry.DurationS,
		&entry.SegmentCount,
		&success,
		&entry.ErrorKind,
		&entry.OutputPath,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}

	entry.Success = success != 0
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	entry.CreatedAt = parsed
	return entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
