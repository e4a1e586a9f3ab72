package mutation

import (
	"context"
	"testing"
)

func TestAddNoteAppendsNoteAndHistory(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.AddNote(context.Background(), id, "user-1", "please review again", "mod-1"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if len(item.Notes) != 1 || item.Notes[0].Text != "please review again" {
		t.Fatalf("expected one note, got %+v", item.Notes)
	}
	if item.Notes[0].AddedBy != "mod-1" {
		t.Errorf("expected addedBy to be mod-1, got %q", item.Notes[0].AddedBy)
	}
	found := false
	for _, h := range item.Meta.History {
		if h.Action == "noteAdded" {
			found = true
		}
	}
	if !found {
		t.Error("expected a noteAdded history entry")
	}
}

func TestAddNoteRejectsEmptyUserID(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	if err := e.AddNote(context.Background(), id, "", "hi", "mod-1"); err == nil {
		t.Fatal("expected an empty userId to be rejected")
	}
}

func TestAddNoteRejectsOverCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNotesPerItem = 1
	e := newHarnessWithConfig(t, 1700000000000, cfg)
	id := mustCreate(t, e, baseCreateData())

	if err := e.AddNote(context.Background(), id, "user-1", "first", "mod-1"); err != nil {
		t.Fatalf("first AddNote: %v", err)
	}
	if err := e.AddNote(context.Background(), id, "user-1", "second", "mod-1"); err == nil {
		t.Fatal("expected the second note to exceed capacity")
	}
}
