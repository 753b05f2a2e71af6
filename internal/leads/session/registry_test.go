package session

import (
	"sync"
	"testing"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRegistryOpenGetClose(t *testing.T) {
	r := NewRegistry(Deps{Store: &fakeStore{}}, time.Hour)
	var closed []uuid.UUID
	r.OnClose(func(id uuid.UUID) { closed = append(closed, id) })

	s := r.Open()
	got, err := r.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected the opened session, got %v %v", got, err)
	}

	if !r.Close(s.ID()) {
		t.Fatal("close should report the session existed")
	}
	if r.Close(s.ID()) {
		t.Fatal("second close should be a no-op")
	}
	if len(closed) != 1 || closed[0] != s.ID() {
		t.Fatalf("expected one close hook call, got %v", closed)
	}
	if _, err := r.Get(s.ID()); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized after close, got %v", err)
	}
	if _, err := r.Get(uuid.New()); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown id, got %v", err)
	}
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: testNow}
	r := NewRegistry(Deps{Store: &fakeStore{}, Now: clock.Now}, 30*time.Minute)

	idle := r.Open()
	active := r.Open()

	clock.Advance(20 * time.Minute)
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("get: %v", err)
	}
	clock.Advance(15 * time.Minute)

	if n := r.EvictIdle(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, err := r.Get(idle.ID()); err == nil {
		t.Fatal("idle session should be gone")
	}
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("active session should survive: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 open session, got %d", r.Len())
	}
}

func TestRegistryZeroTimeoutNeverEvicts(t *testing.T) {
	clock := &fakeClock{now: testNow}
	r := NewRegistry(Deps{Store: &fakeStore{}, Now: clock.Now}, 0)
	r.Open()
	clock.Advance(48 * time.Hour)
	if n := r.EvictIdle(); n != 0 {
		t.Fatalf("expected no eviction, got %d", n)
	}
}
