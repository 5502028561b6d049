package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".cache", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := Run{
		ID:                 "0b9f4d3e-run",
		Mode:               "full",
		Status:             StatusSucceeded,
		StartedAt:          started,
		FinishedAt:         started.Add(3 * time.Second),
		Sources:            3,
		Rendered:           5,
		Reused:             1,
		SkippedSources:     1,
		SkippedDerivatives: 1,
		Events: []Event{
			{Source: "broken.png", Kind: "decode", Message: "unexpected EOF"},
			{Source: "photo.jpg", Format: "avif", Width: 640, Kind: "encode", Message: "encoder failed"},
		},
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "0b9f")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found by prefix")
	}
	if got.Rendered != 5 || got.SkippedSources != 1 || got.Status != StatusSucceeded {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.Duration() != 3*time.Second {
		t.Fatalf("duration = %s", got.Duration())
	}
	if len(got.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got.Events))
	}
	if got.Events[0].Width != 0 || got.Events[0].Format != "" {
		t.Fatalf("source-level event should have no width/format: %+v", got.Events[0])
	}
	if got.Events[1].Width != 640 || got.Events[1].Format != "avif" {
		t.Fatalf("unexpected derivative event %+v", got.Events[1])
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	got, err := store.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("Get missing = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		start := base.Add(time.Duration(i) * time.Minute)
		if err := store.Record(ctx, Run{ID: id, Mode: "full", Status: StatusSucceeded, StartedAt: start, FinishedAt: start}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected order %+v", runs)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now()
	if err := store.Record(context.Background(), Run{ID: "persisted", Mode: "files", Status: StatusCanceled, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "persisted")
	if err != nil || got == nil || got.Status != StatusCanceled {
		t.Fatalf("expected persisted canceled run, got %+v err=%v", got, err)
	}
}
