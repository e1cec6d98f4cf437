package job

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/stockboard/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := store.Create("quote.load")
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Status != StatusRunning {
		t.Errorf("expected running, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.Command != "quote.load" {
		t.Errorf("expected quote.load, got %s", retrieved.Command)
	}
}

func TestStore_Finish(t *testing.T) {
	store := NewStore(100, time.Hour)
	ok := store.Create("watchlist.load")
	bad := store.Create("briefing.run")

	if err := store.Finish(ok.ID, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := store.Finish(bad.ID, errors.New("LLM offline")); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, _ := store.Get(ok.ID)
	if got.Status != StatusComplete || !got.Done() {
		t.Errorf("expected complete, got %s", got.Status)
	}
	got, _ = store.Get(bad.ID)
	if got.Status != StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "LLM offline" {
		t.Errorf("expected error message, got %q", got.Error)
	}
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(2, time.Hour)

	job1 := store.Create("a")
	store.Create("b")
	store.Create("c") // evicts job1

	_, err := store.Get(job1.ID)
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected job1 to be evicted, got %v", err)
	}
}

func TestStore_PrunesFinishedAfterTTL(t *testing.T) {
	store := NewStore(100, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	done := store.Create("a")
	running := store.Create("b")
	_ = store.Finish(done.ID, nil)

	now = now.Add(2 * time.Minute)
	store.Create("c")

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected finished job to be pruned")
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Error("running job must survive pruning")
	}
}

func TestStore_UpdateNotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	if err := store.Update("nonexistent", func(*Job) {}); err == nil {
		t.Error("expected error for nonexistent job")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore(100, time.Hour)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Create("first")
	now = now.Add(time.Second)
	store.Create("second")

	jobs := store.List()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Command != "second" {
		t.Errorf("expected newest first, got %s", jobs[0].Command)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := store.Create("tab.select")

	store.Delete(job.ID)
	store.Delete("missing")

	if _, err := store.Get(job.ID); err == nil {
		t.Error("expected deleted job to be gone")
	}
	if len(store.List()) != 0 {
		t.Error("expected empty store")
	}
}
