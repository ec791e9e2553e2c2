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

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/verify"
)

// ErrNotFound indicates no stored run matches the requested id.
var ErrNotFound = errors.New("history: run not found")

// Run is one stored scan summary.
type Run struct {
	RunID           string
	Root            string
	StartedAt       time.Time
	FinishedAt      time.Time
	TotalAudioFiles int
	TotalFolders    int
	RootFolders     int
	MaxDepth        int
	ErrorCount      int
	WarningCount    int
	Passed          bool
	ExportPath      string
}

// Store manages scan history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores the summary of a completed scan. exportPath may be empty
// when no CSV was written.
func (s *Store) Record(ctx context.Context, res *verify.Result, exportPath string) error {
	counts := finding.CountBySeverity(res.Findings)
	passed := 0
	if res.Passed() {
		passed = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_runs (
            run_id, root, started_at, finished_at,
            total_audio_files, total_folders, root_folders, max_depth,
            error_count, warning_count, passed, export_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Root,
		res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.FinishedAt.UTC().Format(time.RFC3339Nano),
		res.TotalAudioFiles,
		res.TotalFolders,
		res.RootFolders,
		res.MaxDepth,
		counts[finding.SeverityError],
		counts[finding.SeverityWarning],
		passed,
		nullableString(exportPath),
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, root, started_at, finished_at,
        total_audio_files, total_folders, root_folders, max_depth,
        error_count, warning_count, passed, export_path
        FROM scan_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, root, started_at, finished_at,
        total_audio_files, total_folders, root_folders, max_depth,
        error_count, warning_count, passed, export_path
        FROM scan_runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return run, err
}

// Prune deletes all but the newest keep runs and reports how many rows were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scan_runs WHERE run_id NOT IN (
            SELECT run_id FROM scan_runs ORDER BY started_at DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune scan runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		started    string
		finished   string
		passed     int
		exportPath sql.NullString
	)
	err := row.Scan(
		&run.RunID, &run.Root, &started, &finished,
		&run.TotalAudioFiles, &run.TotalFolders, &run.RootFolders, &run.MaxDepth,
		&run.ErrorCount, &run.WarningCount, &passed, &exportPath,
	)
	if err != nil {
		return Run{}, err
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	run.Passed = passed != 0
	run.ExportPath = exportPath.String
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
