package count

import (
	"context"
	"testing"
	"time"

	"github.com/contentguard/modstore/clock"
	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/driver/memdriver"
	"github.com/contentguard/modstore/idgen"
	"github.com/contentguard/modstore/logging"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/mutation"
	"github.com/contentguard/modstore/schema"
)

const testTable = "moderation_items_test"

func testConfig() config.Config {
	return config.Config{
		MaxNoteLength:            5000,
		MaxNotesPerItem:          50,
		MaxHistoryEntries:        100,
		MaxReasonLength:          10000,
		MaxPublicNoteLength:      5000,
		MaxQueryResultSize:       1000,
		DefaultQueryLimit:        20,
		MaxPaginationIterations:  100,
		MaxPaginationTokenSize:   100 * 1024,
		PaginationTokenTTL:       15 * time.Minute,
		CompressionThreshold:     1024,
		RetryMaxAttempts:         3,
		OptimisticLockMaxRetries: 5,
		OptimisticLockBackoff:    0,
		SubmittedAtMaxPast:       5 * 365 * 24 * time.Hour,
		SubmittedAtMaxFuture:     5 * time.Minute,
	}
}

type harness struct {
	engine  *mutation.Engine
	counter *Counter
}

func newHarness(t *testing.T, now int64) *harness {
	t.Helper()
	cfg := testConfig()
	d := memdriver.New()
	if err := schema.CreateModerationSchema(context.Background(), d, testTable, nil, logging.NopErrorSink{}); err != nil {
		t.Fatalf("CreateModerationSchema: %v", err)
	}
	clk := clock.Fixed(now)
	eng := mutation.New(d, testTable, clk, &idgen.Sequence{}, cfg, logging.NopLogger{}, logging.NopErrorSink{}, nil)
	c := New(d, testTable, cfg, logging.NopLogger{}, logging.NopErrorSink{}, nil)
	return &harness{engine: eng, counter: c}
}

func (h *harness) create(t *testing.T, userID string, submittedAt int64) string {
	t.Helper()
	id, err := h.engine.CreateModerationEntry(context.Background(), map[string]interface{}{
		"userId":    userID,
		"contentId": "content-" + userID,
		"type":      "text",
		"priority":  "normal",
	}, submittedAt)
	if err != nil {
		t.Fatalf("CreateModerationEntry: %v", err)
	}
	return id
}

func TestCountModerationItemsByStatusCountsOnlyThatStatus(t *testing.T) {
	h := newHarness(t, 1700000000000)
	id1 := h.create(t, "user-1", 1700000000000)
	h.create(t, "user-2", 1700000000000)
	if err := h.engine.ApplyModerationAction(context.Background(), id1, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}

	n, err := h.counter.CountModerationItemsByStatus(context.Background(), string(model.StatusPending), Filters{})
	if err != nil {
		t.Fatalf("CountModerationItemsByStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pending item, got %d", n)
	}
}

func TestCountModerationItemsByStatusAllSumsEveryStatus(t *testing.T) {
	h := newHarness(t, 1700000000000)
	id1 := h.create(t, "user-1", 1700000000000)
	h.create(t, "user-2", 1700000000000)
	if err := h.engine.ApplyModerationAction(context.Background(), id1, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}

	n, err := h.counter.CountModerationItemsByStatus(context.Background(), string(model.StatusAll), Filters{})
	if err != nil {
		t.Fatalf("CountModerationItemsByStatus: %v", err)
	}
	if n != 2 {
		t.Errorf("expected the 'all' sentinel to sum every status to 2, got %d", n)
	}
}

func TestCountModerationItemsByStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, 1700000000000)
	_, err := h.counter.CountModerationItemsByStatus(context.Background(), "bogus", Filters{})
	if err == nil {
		t.Fatal("expected an unrecognized status to be rejected")
	}
}

func TestCountModerationItemsByStatusUnmoderatedOnlyExcludesActioned(t *testing.T) {
	h := newHarness(t, 1700000000000)
	id1 := h.create(t, "user-1", 1700000000000)
	h.create(t, "user-2", 1700000000000)
	if err := h.engine.ApplyModerationAction(context.Background(), id1, "user-1", model.ActionPendingResubmission, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}

	n, err := h.counter.CountModerationItemsByStatus(context.Background(), string(model.StatusPending), Filters{UnmoderatedOnly: true})
	if err != nil {
		t.Fatalf("CountModerationItemsByStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the never-actioned item to count as unmoderated, got %d", n)
	}
}

func TestCountModerationItemsByStatusHasRejectionHistoryMatchesRejectedAction(t *testing.T) {
	h := newHarness(t, 1700000000000)
	id1 := h.create(t, "user-1", 1700000000000)
	id2 := h.create(t, "user-2", 1700000000000)
	if err := h.engine.ApplyModerationAction(context.Background(), id1, "user-1", model.ActionReject, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction reject: %v", err)
	}
	if err := h.engine.ApplyModerationAction(context.Background(), id2, "user-2", model.ActionPendingResubmission, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction pending_resubmission: %v", err)
	}

	n, err := h.counter.CountModerationItemsByStatus(context.Background(), string(model.StatusRejected), Filters{HasRejectionHistory: true})
	if err != nil {
		t.Fatalf("CountModerationItemsByStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 rejected item with rejection history, got %d", n)
	}
}

func TestGetAllModerationCountsAggregatesEveryStatus(t *testing.T) {
	h := newHarness(t, 1700000000000)
	id1 := h.create(t, "user-1", 1700000000000)
	h.create(t, "user-2", 1700000000000)
	if err := h.engine.ApplyModerationAction(context.Background(), id1, "user-1", model.ActionApprove, "mod-1", nil, nil, nil, nil); err != nil {
		t.Fatalf("ApplyModerationAction: %v", err)
	}

	counts, err := h.counter.GetAllModerationCounts(context.Background())
	if err != nil {
		t.Fatalf("GetAllModerationCounts: %v", err)
	}
	if counts.Approved != 1 {
		t.Errorf("expected Approved=1, got %d", counts.Approved)
	}
	if counts.Pending != 1 {
		t.Errorf("expected Pending=1, got %d", counts.Pending)
	}
	if counts.All != 2 {
		t.Errorf("expected All=2, got %d", counts.All)
	}
	if counts.Unmoderated != 1 {
		t.Errorf("expected Unmoderated=1, got %d", counts.Unmoderated)
	}
}
