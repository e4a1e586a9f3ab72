package mutation

import (
	"context"
	"testing"

	"github.com/contentguard/modstore/model"
)

func TestApplyModerationActionApprovePending(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Status != model.StatusApproved {
		t.Errorf("expected status approved, got %q", item.Status)
	}
	if item.ModeratedBy == nil || *item.ModeratedBy != "mod-1" {
		t.Errorf("expected moderatedBy to be set, got %v", item.ModeratedBy)
	}
	if item.ActionedAt == nil {
		t.Error("expected actionedAt to be set")
	}
}

func TestApplyModerationActionApproveGlobalModerationType(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	mt := model.ModerationTypeGlobal

	err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, &mt)
	if err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Status != model.StatusApprovedGlobal {
		t.Errorf("expected status approved_global, got %q", item.Status)
	}
}

func TestApplyModerationActionRejectFromTerminalStatusFails(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	if err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction (approve): %v", err)
	}
	err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionReject, "mod-1", nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an action from a terminal status (approved) to be rejected")
	}
}

func TestApplyModerationActionPendingResubmissionLeavesStatusUnchanged(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionPendingResubmission, "mod-1", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Status != model.StatusPending {
		t.Errorf("pending_resubmission must leave status=pending unchanged, got %q", item.Status)
	}
	if item.Action == nil || *item.Action != model.ActionPendingResubmission {
		t.Error("expected action to be recorded even though status is unchanged")
	}
}

func TestApplyModerationActionEscalatedAcceptsApproveAndReject(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	if err := e.EscalateModerationItem(context.Background(), id, "user-1", "mod-escalator"); err != nil {
		t.Fatalf("EscalateModerationItem: %v", err)
	}
	if err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction from escalated: %v", err)
	}
}

func TestApplyModerationActionRequiresModeratorID(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "", nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for an empty moderatorId")
	}
}

func TestApplyModerationActionSetsTagStatusForTagFamilyTypes(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	data["type"] = "tag"
	id := mustCreate(t, e, data)

	if err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.TagStatus == nil || *item.TagStatus != model.TagStatusPublished {
		t.Errorf("expected tagStatus published for an approved tag-family item, got %v", item.TagStatus)
	}
}

func TestApplyModerationActionAppendsNoteWhenProvided(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	note := "looks fine"

	if err := e.ApplyModerationAction(context.Background(), id, "user-1", model.ActionApprove, "mod-1", nil, &note, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if len(item.Notes) != 1 || item.Notes[0].Text != "looks fine" {
		t.Errorf("expected the note to be appended, got %+v", item.Notes)
	}
}
