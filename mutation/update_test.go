package mutation

import (
	"context"
	"testing"
)

func TestUpdateModerationEntryMergesAllowedFieldsOnly(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	err := e.UpdateModerationEntry(context.Background(), id, map[string]interface{}{
		"priority":     "urgent",
		"moderationId": "should-be-ignored",
	}, "user-1")
	if err != nil {
		t.Fatalf("UpdateModerationEntry: %v", err)
	}

	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Priority != "urgent" {
		t.Errorf("expected priority to be updated, got %q", item.Priority)
	}
	if item.ModerationID != id {
		t.Errorf("moderationId must never change via updateModerationEntry, got %q", item.ModerationID)
	}
	if item.Meta.Version != 2 {
		t.Errorf("expected version to increment to 2, got %d", item.Meta.Version)
	}
}

func TestUpdateModerationEntryRederivesStatusSubmittedAtOnStatusChange(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.UpdateModerationEntry(context.Background(), id, map[string]interface{}{"status": "approved"}, "user-1"); err != nil {
		t.Fatalf("UpdateModerationEntry: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.StatusSubmittedAt != "approved#1700000000000" {
		t.Errorf("expected statusSubmittedAt to track the new status, got %q", item.StatusSubmittedAt)
	}
}

func TestUpdateModerationEntryRejectsUnknownModerationID(t *testing.T) {
	e := newHarness(t, 1700000000000)
	err := e.UpdateModerationEntry(context.Background(), "11111111-1111-4111-8111-111111111111", map[string]interface{}{"priority": "low"}, "user-1")
	if err == nil {
		t.Fatal("expected an error updating a nonexistent moderationId")
	}
}

func TestUpdateModerationEntryNotesOverCapRejected(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNotesPerItem = 1
	e := newHarnessWithConfig(t, 1700000000000, cfg)
	id := mustCreate(t, e, baseCreateData())

	notes := []interface{}{
		map[string]interface{}{"text": "a", "addedBy": "u1", "addedAt": float64(1)},
		map[string]interface{}{"text": "b", "addedBy": "u1", "addedAt": float64(2)},
	}
	err := e.UpdateModerationEntry(context.Background(), id, map[string]interface{}{"notes": notes}, "user-1")
	if err == nil {
		t.Fatal("expected a notes array exceeding the per-item cap to be rejected")
	}
}

func TestUpdateModerationEntryAppendsHistoryWithFieldsChanged(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.UpdateModerationEntry(context.Background(), id, map[string]interface{}{"priority": "high"}, "user-1"); err != nil {
		t.Fatalf("UpdateModerationEntry: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	last := item.Meta.History[len(item.Meta.History)-1]
	if last.Action != "update" {
		t.Errorf("expected the last history entry to be an update, got %q", last.Action)
	}
}
