package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lodeworks/lode/internal/resource"
)

func TestStoreOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestStoreOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestStoreAppend_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := NewEvent(resource.KindChunk, "chunk-a", OutcomeFallbackUsed, 1)
	if err := s.Append(ctx, e); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	events, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.ID != e.ID || got.Resource != e.Resource || got.Kind != e.Kind ||
		got.Outcome != e.Outcome || got.Attempts != e.Attempts {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, e)
	}
	if !got.At.Equal(e.At) {
		t.Errorf("timestamp mismatch: got %v, want %v", got.At, e.At)
	}
}

func TestStoreAppend_DuplicateIDIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := NewEvent(resource.KindChunk, "chunk-a", OutcomeFallbackUsed, 1)
	for i := 0; i < 2; i++ {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append() iteration %d failed: %v", i, err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalEvents != 1 {
		t.Errorf("expected 1 event after duplicate append, got %d", stats.TotalEvents)
	}
}

func TestStoreRecent_OrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, res := range []string{"first", "second", "third"} {
		e := NewEvent(resource.KindChunk, res, OutcomeFallbackUsed, 1)
		e.At = base.Add(time.Duration(i) * time.Second)
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append(%s) failed: %v", res, err)
		}
	}

	events, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Resource != "third" || events[1].Resource != "second" {
		t.Errorf("wrong order: got %s, %s", events[0].Resource, events[1].Resource)
	}
}

func TestStoreStats_Aggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := []Event{
		NewEvent(resource.KindChunk, "a", OutcomeFallbackUsed, 1),
		NewEvent(resource.KindComponent, "b", OutcomeFallbackUsed, 1),
		NewEvent(resource.KindChunk, "c", OutcomeRetriedThenSucceeded, 3),
		NewEvent(resource.KindComponent, "d", OutcomeRetriedThenFailed, 2),
	}
	for _, e := range seed {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}

	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	if stats.ChunkFallbacks != 1 {
		t.Errorf("ChunkFallbacks = %d, want 1", stats.ChunkFallbacks)
	}
	if stats.ComponentFallbacks != 1 {
		t.Errorf("ComponentFallbacks = %d, want 1", stats.ComponentFallbacks)
	}
	if stats.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", stats.RetryAttempts)
	}
	if stats.SuccessfulFallbacks != 3 {
		t.Errorf("SuccessfulFallbacks = %d, want 3", stats.SuccessfulFallbacks)
	}
}

func TestStoreClear_DeletesEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, NewEvent(resource.KindChunk, "a", OutcomeFallbackUsed, 1)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalEvents != 0 {
		t.Errorf("expected empty store after Clear, got %d events", stats.TotalEvents)
	}
}

func TestStoreRecord_ImplementsRecorder(t *testing.T) {
	s := openTestStore(t)

	var r Recorder = s
	r.Record(NewEvent(resource.KindComponent, "hero", OutcomeRetriedThenFailed, 2))

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalEvents != 1 {
		t.Errorf("expected 1 event via Record, got %d", stats.TotalEvents)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
