package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteJournal implements Journal on a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteJournal struct {
	db *sql.DB
}

// OpenSqlite opens or creates a journal database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteJournal, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return newSqliteJournal(db)
}

// NewSqliteInMemory creates an in-memory journal (useful for testing).
func NewSqliteInMemory() (*SqliteJournal, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return newSqliteJournal(db)
}

func newSqliteJournal(db *sql.DB) (*SqliteJournal, error) {
	j := &SqliteJournal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *SqliteJournal) Close() error {
	return j.db.Close()
}

func (j *SqliteJournal) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			spec TEXT NOT NULL,
			file_mode INTEGER NOT NULL DEFAULT 0,
			env TEXT NOT NULL,
			provider TEXT,
			model TEXT,
			outcome TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			replans INTEGER NOT NULL DEFAULT 0,
			verified INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_started
		ON sessions(started_at DESC);

		CREATE TABLE IF NOT EXISTS session_errors (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			command TEXT NOT NULL,
			probe TEXT,
			exit_code INTEGER NOT NULL,
			stderr TEXT NOT NULL,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		);
	`

	_, err := j.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores rec and its error rows in one transaction. Recording the
// same session ID twice replaces the earlier entry.
func (j *SqliteJournal) Record(ctx context.Context, rec SessionRecord) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	var provider, model interface{}
	if rec.Provider != "" {
		provider = rec.Provider
	}
	if rec.Model != "" {
		model = rec.Model
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		(session_id, kind, spec, file_mode, env, provider, model, outcome, attempts, replans, verified, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Spec, rec.FileMode, rec.Env, provider, model,
		rec.Outcome, rec.Attempts, rec.Replans, rec.Verified,
		rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM session_errors WHERE session_id = ?", rec.ID)
	if err != nil {
		return fmt.Errorf("failed to clear old errors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_errors (session_id, seq, kind, command, probe, exit_code, stderr)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rec.Errors {
		var probe interface{}
		if row.Probe != "" {
			probe = row.Probe
		}
		_, err = stmt.ExecContext(ctx, rec.ID, i+1, row.Kind, row.Command, probe, row.ExitCode, row.Stderr)
		if err != nil {
			return fmt.Errorf("failed to insert error row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Recent lists the newest sessions first.
func (j *SqliteJournal) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, kind, spec, file_mode, env, provider, model, outcome,
		       attempts, replans, verified, started_at, finished_at
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	records := []SessionRecord{} // Start with empty slice, not nil
	for rows.Next() {
		var (
			rec               SessionRecord
			provider, model   sql.NullString
			started, finished int64
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Spec, &rec.FileMode, &rec.Env,
			&provider, &model, &rec.Outcome, &rec.Attempts, &rec.Replans, &rec.Verified,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.Provider = provider.String
		rec.Model = model.String
		rec.StartedAt = time.Unix(0, started)
		rec.FinishedAt = time.Unix(0, finished)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return records, nil
}

// Errors returns the error rows of one session. Unknown IDs yield an empty slice.
func (j *SqliteJournal) Errors(ctx context.Context, sessionID string) ([]ErrorRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, command, probe, exit_code, stderr
		FROM session_errors
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	errs := []ErrorRow{}
	for rows.Next() {
		var (
			row   ErrorRow
			probe sql.NullString
		)
		if err := rows.Scan(&row.Seq, &row.Kind, &row.Command, &probe, &row.ExitCode, &row.Stderr); err != nil {
			return nil, fmt.Errorf("failed to scan error row: %w", err)
		}
		row.Probe = probe.String
		errs = append(errs, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating errors: %w", err)
	}
	return errs, nil
}

// Verify SqliteJournal implements Journal
var _ Journal = (*SqliteJournal)(nil)
