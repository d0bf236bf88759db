package storage

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInMemoryJournalCopiesRecords(t *testing.T) {
	j := NewInMemoryJournal()
	ctx := context.Background()

	rec := sampleRecord("s1", t0)
	if err := j.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	rec.Errors[0].Command = "mutated"

	rows, _ := j.Errors(ctx, "s1")
	if rows[0].Command != "pip install reqeusts==2.31.0" {
		t.Errorf("journal shares memory with caller: %q", rows[0].Command)
	}

	rows[0].Command = "mutated again"
	again, _ := j.Errors(ctx, "s1")
	if again[0].Command != "pip install reqeusts==2.31.0" {
		t.Errorf("Errors returned shared slice: %q", again[0].Command)
	}
}

func TestInMemoryJournalConcurrentRecord(t *testing.T) {
	j := NewInMemoryJournal()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = j.Record(ctx, sampleRecord(id, t0.Add(time.Duration(i)*time.Minute)))
		}(i)
	}
	wg.Wait()

	got, err := j.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 sessions, got %d", len(got))
	}
	if got[0].ID != "t" {
		t.Errorf("expected newest session first, got %s", got[0].ID)
	}
}
