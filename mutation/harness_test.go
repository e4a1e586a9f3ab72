package mutation

import (
	"context"
	"testing"
	"time"

	"github.com/contentguard/modstore/clock"
	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/driver/memdriver"
	"github.com/contentguard/modstore/idgen"
	"github.com/contentguard/modstore/logging"
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
		CompressionThreshold:     1024,
		RetryMaxAttempts:         3,
		OptimisticLockMaxRetries: 5,
		OptimisticLockBackoff:    0, // no sleeping in tests
		SubmittedAtMaxPast:       5 * 365 * 24 * time.Hour,
		SubmittedAtMaxFuture:     5 * time.Minute,
	}
}

// newHarness wires an Engine against a fresh in-memory driver with a
// fixed clock and a deterministic ID generator, mirroring how the
// engine is constructed in production minus the concrete storage
// backend (spec §1's out-of-scope collaborator).
func newHarness(t *testing.T, now int64) *Engine {
	t.Helper()
	return newHarnessWithConfig(t, now, testConfig())
}

func newHarnessWithConfig(t *testing.T, now int64, cfg config.Config) *Engine {
	t.Helper()
	d := memdriver.New()
	if err := schema.CreateModerationSchema(context.Background(), d, testTable, nil, logging.NopErrorSink{}); err != nil {
		t.Fatalf("CreateModerationSchema: %v", err)
	}
	return New(d, testTable, clock.Fixed(now), &idgen.Sequence{}, cfg, logging.NopLogger{}, logging.NopErrorSink{}, nil)
}

func mustCreate(t *testing.T, e *Engine, data map[string]interface{}) string {
	t.Helper()
	id, err := e.CreateModerationEntry(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("CreateModerationEntry: %v", err)
	}
	return id
}

func baseCreateData() map[string]interface{} {
	return map[string]interface{}{
		"userId":    "user-1",
		"contentId": "content-1",
		"type":      "text",
		"priority":  "normal",
	}
}
