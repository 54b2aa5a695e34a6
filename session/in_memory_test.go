package session

import (
	"errors"
	"testing"

	"github.com/hupe1980/agentdesk/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	store := NewInMemoryStore()
	created, err := store.Create("s1", core.CustomerContext{CustomerID: "cust-1", Name: "Ada"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != "s1" || created.Customer.CustomerID != "cust-1" {
		t.Fatalf("unexpected session: %#v", created)
	}
	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	// clone isolation
	got.SetState("k", "v")
	again, _ := store.Get("s1")
	if _, ok := again.GetState("k"); ok {
		t.Fatalf("expected clone isolation")
	}
}

func TestInMemoryStore_MissingIdentity(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("s1", core.CustomerContext{})
	if !errors.Is(err, core.ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestInMemoryStore_UnknownSession(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Get("nope"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.RecordTurn("nope", "support", false); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestInMemoryStore_RecordTurnLatchesEscalation(t *testing.T) {
	store := NewInMemoryStore()
	_, _ = store.Create("s1", core.CustomerContext{CustomerID: "cust-1"})
	if err := store.RecordTurn("s1", "support", false); err != nil {
		t.Fatalf("record turn failed: %v", err)
	}
	if err := store.RecordTurn("s1", "billing", true); err != nil {
		t.Fatalf("record turn failed: %v", err)
	}
	if err := store.RecordTurn("s1", "billing", false); err != nil {
		t.Fatalf("record turn failed: %v", err)
	}
	sess, _ := store.Get("s1")
	if sess.Turns != 3 {
		t.Fatalf("expected 3 turns, got %d", sess.Turns)
	}
	if !sess.Escalated {
		t.Fatalf("expected escalated flag to latch")
	}
}
