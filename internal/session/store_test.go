package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"formpilot/internal/domain"
	"formpilot/internal/domain/models/form"
	"formpilot/internal/engine"
)

const testForm = `---
form_id: t
title: T
fields:
  - id: name
    type: text
    required: true
    prompt: "Name?"
---
body
`

func testState(t *testing.T) *engine.State {
	t.Helper()
	def, err := form.ParseDefinition(testForm)
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}
	return engine.NewState(def)
}

func newTestStore(ttl time.Duration) *Store {
	return NewStore(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(time.Minute)

	sess := store.Create(testState(t))
	if sess.ID == "" {
		t.Fatal("session should get an id")
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Error("Get should return the same session")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := newTestStore(time.Minute)

	_, err := store.Get("no-such-id")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	store := newTestStore(10 * time.Millisecond)
	sess := store.Create(testState(t))

	time.Sleep(25 * time.Millisecond)

	if _, err := store.Get(sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expired session should be gone, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired session should be removed, have %d", store.Len())
	}
}

func TestStore_SlidingTTL(t *testing.T) {
	store := newTestStore(40 * time.Millisecond)
	sess := store.Create(testState(t))

	// Touch the session before expiry; the TTL slides forward.
	time.Sleep(25 * time.Millisecond)
	if _, err := store.Get(sess.ID); err != nil {
		t.Fatalf("session should still be alive: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := store.Get(sess.ID); err != nil {
		t.Errorf("TTL should slide on access: %v", err)
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	store := newTestStore(10 * time.Millisecond)
	store.Create(testState(t))
	store.Create(testState(t))

	time.Sleep(25 * time.Millisecond)
	live := store.Create(testState(t))

	if removed := store.CleanupExpired(); removed != 2 {
		t.Errorf("expected 2 removals, got %d", removed)
	}
	if _, err := store.Get(live.ID); err != nil {
		t.Errorf("live session should survive cleanup: %v", err)
	}
}

func TestSession_TurnSerialization(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.Create(testState(t))

	if err := sess.BeginTurn(); err != nil {
		t.Fatalf("first BeginTurn failed: %v", err)
	}
	if err := sess.BeginTurn(); !errors.Is(err, domain.ErrTurnInFlight) {
		t.Errorf("concurrent turn should conflict, got %v", err)
	}
	sess.EndTurn()
	if err := sess.BeginTurn(); err != nil {
		t.Errorf("turn lock should be reusable after EndTurn: %v", err)
	}
	sess.EndTurn()
}
