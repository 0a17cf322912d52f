package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"radiocorpus/internal/telemetry"
)

// ErrBusy is returned by Lock when another build holds the ledger.
var ErrBusy = errors.New("another build is using the ledger")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// UnitRecord is a completed unit.
type UnitRecord struct {
	OutputPath   string
	SessionKey   int
	DriverNumber int
	RunID        string
	Pairs        int
	CompletedAt  time.Time
}

// RunRecord is one build run.
type RunRecord struct {
	ID         string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Units      int
	Pairs      int
	Failed     int
}

// RunTotals are recorded when a run finishes.
type RunTotals struct {
	Units  int
	Pairs  int
	Failed int
}

// Ledger persists completed units in SQLite.
type Ledger struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open creates or opens the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path, lock: flock.New(path + ".lock")}
	if err := l.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database path.
func (l *Ledger) Path() string { return l.path }

// Lock takes the single-build lock. It fails fast with ErrBusy.
func (l *Ledger) Lock() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBusy, l.path)
	}
	return nil
}

// Close releases the lock, if held, and closes the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	if l.lock.Locked() {
		_ = l.lock.Unlock()
	}
	return l.db.Close()
}

// BeginRun records a new run against outputPath and returns its ID.
func (l *Ledger) BeginRun(ctx context.Context, outputPath string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO runs (id, output_path, started_at, status) VALUES (?, ?, ?, ?)",
		id, outputPath, formatTime(time.Now()), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stores the totals and final status of a run.
func (l *Ledger) FinishRun(ctx context.Context, runID, status string, totals RunTotals) error {
	res, err := l.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, status = ?, units = ?, pairs = ?, failed = ? WHERE id = ?",
		formatTime(time.Now()), status, totals.Units, totals.Pairs, totals.Failed, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// IsComplete reports whether unit has been written to outputPath.
func (l *Ledger) IsComplete(ctx context.Context, outputPath string, unit telemetry.Unit) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM units WHERE output_path = ? AND session_key = ? AND driver_number = ?",
		outputPath, unit.SessionKey, unit.DriverNumber,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query unit: %w", err)
	}
	return count > 0, nil
}

// MarkComplete records unit as written with the given pair count.
func (l *Ledger) MarkComplete(ctx context.Context, outputPath, runID string, unit telemetry.Unit, pairs int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO units (output_path, session_key, driver_number, run_id, pairs, completed_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (output_path, session_key, driver_number)
         DO UPDATE SET run_id = excluded.run_id, pairs = excluded.pairs, completed_at = excluded.completed_at`,
		outputPath, unit.SessionKey, unit.DriverNumber, runID, pairs, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record unit %s: %w", unit, err)
	}
	return nil
}

// Units lists completed units, optionally restricted to one output path.
func (l *Ledger) Units(ctx context.Context, outputPath string) ([]UnitRecord, error) {
	query := "SELECT output_path, session_key, driver_number, run_id, pairs, completed_at FROM units"
	var args []any
	if outputPath != "" {
		query += " WHERE output_path = ?"
		args = append(args, outputPath)
	}
	query += " ORDER BY output_path, session_key, driver_number"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []UnitRecord
	for rows.Next() {
		var rec UnitRecord
		var completed string
		if err := rows.Scan(&rec.OutputPath, &rec.SessionKey, &rec.DriverNumber, &rec.RunID, &rec.Pairs, &completed); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		rec.CompletedAt = parseTime(completed)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Runs lists the most recent runs first. A limit <= 0 returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT id, output_path, started_at, COALESCE(finished_at, ''), status, units, pairs, failed FROM runs ORDER BY started_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.OutputPath, &started, &finished, &rec.Status, &rec.Units, &rec.Pairs, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = parseTime(started)
		rec.FinishedAt = parseTime(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Reset forgets completed units for outputPath, or for every output when
// outputPath is empty, and returns how many were removed.
func (l *Ledger) Reset(ctx context.Context, outputPath string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if outputPath == "" {
		res, err = l.db.ExecContext(ctx, "DELETE FROM units")
	} else {
		res, err = l.db.ExecContext(ctx, "DELETE FROM units WHERE output_path = ?", outputPath)
	}
	if err != nil {
		return 0, fmt.Errorf("reset ledger: %w", err)
	}
	return res.RowsAffected()
}

// timeLayout has fixed-width fractions so stored values sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
