package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry()

	s := r.Create()
	if s.ID == "" {
		t.Fatal("expected non-empty session ID")
	}
	if s.Store.State() != StateOpen {
		t.Errorf("expected new session to be open, got %v", s.Store.State())
	}

	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != s {
		t.Error("expected Get to return the created session")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	s := r.Create()
	_ = s.Store.Append(seg(0, "a"))

	if !r.Remove(s.ID) {
		t.Fatal("expected Remove to return true")
	}
	if r.Remove(s.ID) {
		t.Error("expected second Remove to return false")
	}
	if s.Store.State() != StateDiscarded {
		t.Errorf("expected removed session's store to be discarded, got %v", s.Store.State())
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	r := NewRegistry()
	numGoroutines := 50

	var wg sync.WaitGroup
	ids := make(chan string, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.Create().ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate session ID generated: %s", id)
		}
		seen[id] = true
	}
	if r.Len() != numGoroutines {
		t.Errorf("expected %d sessions, got %d", numGoroutines, r.Len())
	}
}

func TestRegistry_LimitsApplyToStores(t *testing.T) {
	r := NewRegistryWithLimits(Limits{MaxSegments: 1})
	s := r.Create()

	if _, err := s.Store.AppendNext([]byte("a"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Store.AppendNext([]byte("b"), ""); !errors.Is(err, ErrTooManySegments) {
		t.Errorf("expected ErrTooManySegments, got %v", err)
	}
}

func TestRegistry_RemoveOlderThan(t *testing.T) {
	r := NewRegistry()
	old := r.Create()
	fresh := r.Create()
	old.CreatedAt = time.Now().Add(-time.Hour)

	removed := r.RemoveOlderThan(30 * time.Minute)
	if len(removed) != 1 || removed[0] != old.ID {
		t.Fatalf("expected only the old session removed, got %v", removed)
	}
	if old.Store.State() != StateDiscarded {
		t.Error("expected removed session to be discarded")
	}
	if _, err := r.Get(fresh.ID); err != nil {
		t.Errorf("expected fresh session kept, got %v", err)
	}
}

func TestRegistry_Restart(t *testing.T) {
	r := NewRegistry()
	s := r.Create()
	if err := s.Store.Append(seg(0, "ab")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Store.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restarted, err := r.Restart(s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restarted.ID != s.ID {
		t.Errorf("expected ID to be kept, got %s", restarted.ID)
	}
	if restarted.Store.State() != StateOpen || restarted.Store.Len() != 0 {
		t.Errorf("expected empty open store, got %v with %d segments", restarted.Store.State(), restarted.Store.Len())
	}
	if restarted.CreatedAt.Before(s.CreatedAt) {
		t.Error("expected session age to start over")
	}

	got, _ := r.Get(s.ID)
	if got != restarted {
		t.Error("expected Get to return the restarted session")
	}
	if _, err := r.Restart("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
