package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/contentguard/modstore/errs"
)

func TestCreateModerationEntryDefaultsStatusToPending(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())

	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item == nil {
		t.Fatal("expected to find the created item")
	}
	if item.Status != "pending" {
		t.Errorf("expected default status pending, got %q", item.Status)
	}
	if item.Meta.Version != 1 {
		t.Errorf("expected initial version 1, got %d", item.Meta.Version)
	}
	if len(item.Meta.History) != 1 || item.Meta.History[0].Action != "create" {
		t.Errorf("expected a single create history entry, got %+v", item.Meta.History)
	}
}

func TestCreateModerationEntryPreApprovedForcesApprovedStatus(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	data["isPreApproved"] = true
	id := mustCreate(t, e, data)

	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.Status != "approved" {
		t.Errorf("expected isPreApproved to force status=approved, got %q", item.Status)
	}
}

func TestCreateModerationEntryRejectsMissingUserID(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	delete(data, "userId")
	_, err := e.CreateModerationEntry(context.Background(), data, nil)
	if err == nil {
		t.Fatal("expected an error for a missing userId")
	}
}

func TestCreateModerationEntryRejectsUnknownType(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	data["type"] = "not-a-real-type"
	_, err := e.CreateModerationEntry(context.Background(), data, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown type")
	}
}

func TestCreateModerationEntryWithExplicitModerationIDRejectsDuplicate(t *testing.T) {
	e := newHarness(t, 1700000000000)
	const fixedID = "11111111-1111-4111-8111-111111111111"
	data := baseCreateData()
	data["moderationId"] = fixedID
	if _, err := e.CreateModerationEntry(context.Background(), data, nil); err != nil {
		t.Fatalf("first create: %v", err)
	}

	data2 := baseCreateData()
	data2["moderationId"] = fixedID
	_, err := e.CreateModerationEntry(context.Background(), data2, nil)
	if err == nil {
		t.Fatal("expected a duplicate explicit moderationId to be rejected")
	}
	var asErr *errs.Error
	if ok := errors.As(err, &asErr); !ok || asErr.Kind != errs.ModerationEntryAlreadyExists {
		t.Errorf("expected ModerationEntryAlreadyExists, got %v", err)
	}
}

func TestCreateModerationEntryDeriveDayKeyAndStatusSubmittedAt(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id := mustCreate(t, e, baseCreateData())
	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.StatusSubmittedAt != "pending#1700000000000" {
		t.Errorf("unexpected statusSubmittedAt: %q", item.StatusSubmittedAt)
	}
	if item.DayKey == "" {
		t.Error("expected a derived dayKey")
	}
}

func TestCreateModerationEntrySetsContentFingerprint(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	data["content"] = map[string]interface{}{"caption": "hello"}
	id := mustCreate(t, e, data)

	item, _, err := e.resolveByModerationID(context.Background(), id)
	if err != nil {
		t.Fatalf("resolveByModerationID: %v", err)
	}
	if item.ContentFingerprint == "" {
		t.Error("expected a content fingerprint to be derived when content is present")
	}
}

func TestCreateModerationEntryTwoCallsProduceDistinctIDs(t *testing.T) {
	e := newHarness(t, 1700000000000)
	id1 := mustCreate(t, e, baseCreateData())
	id2 := mustCreate(t, e, baseCreateData())
	if id1 == id2 {
		t.Fatal("two separate creates must mint distinct moderationIds")
	}
}

func TestCreateModerationEntryRejectsSubmittedAtFarInFuture(t *testing.T) {
	e := newHarness(t, 1700000000000)
	data := baseCreateData()
	_, err := e.CreateModerationEntry(context.Background(), data, int64(1700000000000)+int64(24)*3600*1000)
	if err == nil {
		t.Fatal("expected a far-future submittedAt to be rejected")
	}
}
