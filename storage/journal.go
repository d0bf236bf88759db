// Package storage keeps a journal of finished resolution sessions.
//
// Information Hiding:
// - Backend choice (SQLite file or in-memory map) hidden behind Journal
// - Schema and row mapping encapsulated per backend
// - Records are plain values; the resolver package is not imported here

package storage

import (
	"context"
	"time"
)

// Journal records finished sessions. It is write-once per session and is
// never consulted while a session runs.
type Journal interface {
	// Record stores a finished session together with its error rows.
	Record(ctx context.Context, rec SessionRecord) error

	// Recent lists the newest sessions first, at most limit of them.
	// Errors is left empty; use Errors to fetch them.
	Recent(ctx context.Context, limit int) ([]SessionRecord, error)

	// Errors returns the error rows of one session in the order they occurred.
	Errors(ctx context.Context, sessionID string) ([]ErrorRow, error)

	Close() error
}

// SessionRecord is the journal's view of one finished session.
type SessionRecord struct {
	ID         string
	Kind       string
	Spec       string
	FileMode   bool
	Env        string
	Provider   string
	Model      string
	Outcome    string
	Attempts   int
	Replans    int
	Verified   bool
	StartedAt  time.Time
	FinishedAt time.Time
	Errors     []ErrorRow
}

// Duration is how long the session ran.
func (r SessionRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorRow is one failed command or probe.
type ErrorRow struct {
	Seq      int
	Kind     string
	Command  string
	Probe    string
	ExitCode int
	Stderr   string
}

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20
