package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// InMemoryJournal implements Journal with a map.
// Data is lost when the process terminates.
type InMemoryJournal struct {
	mu       sync.RWMutex
	sessions map[string]SessionRecord
}

// NewInMemoryJournal creates an empty in-memory journal.
func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{
		sessions: make(map[string]SessionRecord),
	}
}

// Record stores a copy of rec, numbering its error rows from 1.
func (j *InMemoryJournal) Record(ctx context.Context, rec SessionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Copy to avoid external mutations
	rows := make([]ErrorRow, len(rec.Errors))
	for i, row := range rec.Errors {
		row.Seq = i + 1
		rows[i] = row
	}
	rec.Errors = rows
	j.sessions[rec.ID] = rec
	return nil
}

// Recent lists the newest sessions first, without their error rows.
func (j *InMemoryJournal) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	records := make([]SessionRecord, 0, len(j.sessions))
	for _, rec := range j.sessions {
		rec.Errors = nil
		records = append(records, rec)
	}
	sort.Slice(records, func(a, b int) bool {
		return records[a].StartedAt.After(records[b].StartedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Errors returns a copy of the error rows recorded for sessionID.
func (j *InMemoryJournal) Errors(ctx context.Context, sessionID string) ([]ErrorRow, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rec, ok := j.sessions[sessionID]
	if !ok {
		return []ErrorRow{}, nil
	}
	return slices.Clone(rec.Errors), nil
}

// Close is a no-op.
func (j *InMemoryJournal) Close() error { return nil }

// Verify InMemoryJournal implements Journal
var _ Journal = (*InMemoryJournal)(nil)
