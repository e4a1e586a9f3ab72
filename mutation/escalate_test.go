package mutation

import (
	"context"
	"testing"

	"github.com/contentguard/modstore/model"
)

func TestEscalateModerationItemSetsStatusAndMarkers(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.EscalateModerationItem(context.Background(), id, "user-1", "mod-escalator"); err != nil {
		t.Fatalf("EscalateModerationItem: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Status != model.StatusEscalated {
		t.Errorf("expected status escalated, got %q", item.Status)
	}
	if item.EscalatedBy == nil || *item.EscalatedBy != "mod-escalator" {
		t.Errorf("expected escalatedBy to be set, got %v", item.EscalatedBy)
	}
	if item.EscalatedAt == nil {
		t.Error("expected escalatedAt to be set")
	}
	if item.ActionedAt == nil {
		t.Error("expected actionedAt to be set by escalation per spec")
	}
}

func TestEscalateModerationItemRequiresEscalatedBy(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	if err := e.EscalateModerationItem(context.Background(), id, "user-1", ""); err == nil {
		t.Fatal("expected an empty escalatedBy to be rejected")
	}
}

func TestEscalateModerationItemReescalationIsIdempotentAndGrowsHistory(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.EscalateModerationItem(context.Background(), id, "user-1", "mod-a"); err != nil {
		t.Fatalf("first escalate: %v", err)
	}
	if err := e.EscalateModerationItem(context.Background(), id, "user-1", "mod-b"); err != nil {
		t.Fatalf("re-escalation should be idempotent (succeed), got: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if *item.EscalatedBy != "mod-b" {
		t.Errorf("expected the most recent escalatedBy to win, got %q", *item.EscalatedBy)
	}
	escalationEntries := 0
	for _, h := range item.Meta.History {
		if h.Action == "itemEscalated" {
			escalationEntries++
		}
	}
	if escalationEntries != 2 {
		t.Errorf("expected 2 itemEscalated history entries, got %d", escalationEntries)
	}
}

func TestEscalateThenApproveScenario(t *testing.T) {
	// spec §8 scenario 5: escalate then approve ends with status
	// "approved", escalatedBy still populated, and history grew by 2.
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	if err := e.EscalateModerationItem(context.Background(), id, "user-1", "mod-escalator"); err != nil {
		t.Fatalf("EscalateModerationItem: %v", err)
	}
	afterEscalate, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	historyBefore := len(afterEscalate.Meta.History)

	if err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	final, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if final.Status != model.StatusApproved {
		t.Errorf("expected final status approved, got %q", final.Status)
	}
	if final.EscalatedBy == nil || *final.EscalatedBy != "mod-escalator" {
		t.Errorf("expected escalatedBy to remain populated, got %v", final.EscalatedBy)
	}
	if len(final.Meta.History)-historyBefore != 1 {
		t.Errorf("expected exactly 1 new history entry from the approve step, got %d", len(final.Meta.History)-historyBefore)
	}
}
