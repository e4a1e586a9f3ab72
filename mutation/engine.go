// Package mutation implements the moderation engine's write paths
// (spec §4.E): createModerationEntry, updateModerationEntry, addNote,
// applyModerationAction, escalateModerationItem, updateModerationMeta,
// softDeleteModerationItem, hardDeleteModerationItem.
//
// Every write path shares the scaffold sanitize → validate →
// read-current (if needed) → build mutation → conditional write →
// retry on conditional failure → log, grounded on the teacher's
// src/models/entity_lifecycle.go lifecycle-transition pattern (load,
// mutate a copy, persist through a guarded write) before that file
// was dropped from the workspace in favor of a generalized version
// here.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/contentguard/modstore/clock"
	"github.com/contentguard/modstore/codec"
	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/idgen"
	"github.com/contentguard/modstore/logging"
	"github.com/contentguard/modstore/metrics"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
	"github.com/contentguard/modstore/schema"
	"github.com/contentguard/modstore/validate"
)

// Engine is the mutation engine, bound to a storage driver and the
// external collaborators spec §6 names.
type Engine struct {
	Driver    driver.Driver
	TableName string
	Clock     clock.Clock
	IDs       idgen.Generator
	Logger    logging.Logger
	Sink      errs.ErrorSink
	Validator *validate.Validator
	Config    config.Config
	Metrics   *metrics.Recorder
}

// New builds an Engine. Any of Logger/Sink/Metrics may be nil.
func New(d driver.Driver, tableName string, clk clock.Clock, ids idgen.Generator, cfg config.Config, logger logging.Logger, sink errs.ErrorSink, m *metrics.Recorder) *Engine {
	return &Engine{
		Driver:    d,
		TableName: tableName,
		Clock:     clk,
		IDs:       ids,
		Logger:    logger,
		Sink:      sink,
		Validator: validate.New(cfg, sink),
		Config:    cfg,
		Metrics:   m,
	}
}

func (e *Engine) log(action string, data map[string]interface{}) {
	if e.Logger == nil {
		return
	}
	defer func() { _ = recover() }()
	e.Logger.WriteLog("MODERATIONS", action, data)
}

func (e *Engine) fail(origin string, kind errs.Kind, message string, cause error, data map[string]interface{}) *errs.Error {
	return errs.New(e.Sink, kind, origin, message, cause, data)
}

// resolveByModerationID performs the two-step ByModerationId → GetItem
// lookup every mutation-by-moderationId entry point needs (spec §4.E,
// §4.F getModerationRecordById). It returns (nil, nil) if no item is
// found — not an error, matching how lookups that legitimately may
// miss are treated throughout the spec.
func (e *Engine) resolveByModerationID(ctx context.Context, moderationID string) (*model.Item, driver.Item, error) {
	out, err := e.Driver.Query(ctx, driver.QueryInput{
		TableName:   e.TableName,
		IndexName:   schema.IndexByModerationID,
		KeyCondition: driver.KeyCondition{PartitionValue: moderationID},
		Limit:       1,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil, nil
	}
	keyItem := out.Items[0]
	got, exists, err := e.Driver.GetItem(ctx, driver.GetItemInput{
		TableName:      e.TableName,
		Key:            driver.Key{"pk": keyItem["pk"], "sk": keyItem["sk"]},
		ConsistentRead: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, nil
	}
	it, err := codec.FromDriverItem(got)
	if err != nil {
		return nil, nil, err
	}
	return it, got, nil
}

// conditionalWrite issues an UpdateItem asserting meta.version ==
// expectedVersion, retrying on ErrConditionalCheckFailed by re-reading
// the item (resolveByModerationID) and calling build again up to
// maxRetries times with linear backoff
// 50ms × attempt (spec §5 "Optimistic concurrency"). build receives
// the freshly-reloaded current item and must return the complete new
// record, or an error to abort the whole operation without retrying
// (e.g. a validation failure found only after a reload).
//
// The full record — not a partial attribute delta — is written on
// every attempt (UpdateItemInput.SetAttributes is documented as a
// complete replacement of the names it sets). Rebuilding the driver
// item wholesale from the typed record via codec.ToDriverItem, rather
// than hand-assembling a SetAttributes map piecemeal per call site,
// keeps every nested attribute (meta, content) in one consistent
// marshalled shape no matter which mutation wrote it last.
func (e *Engine) conditionalWrite(ctx context.Context, origin string, moderationID string, maxRetries int, build func(current *model.Item) (*model.Item, error)) (*model.Item, error) {
	current, rawCurrent, err := e.resolveByModerationID(ctx, moderationID)
	if err != nil {
		return nil, e.transientOrFail(origin, err)
	}
	if current == nil {
		return nil, e.fail(origin, errs.ModerationItemNotFound, "no item with that moderationId", nil, map[string]interface{}{"moderationId": moderationID})
	}

	for attempt := 0; ; attempt++ {
		next, err := build(current)
		if err != nil {
			return nil, err
		}
		if err := e.Validator.StructTags(origin, next); err != nil {
			return nil, err
		}
		if err := e.Validator.Record(origin, next); err != nil {
			return nil, err
		}

		sets, err := codec.ToDriverItem(next)
		if err != nil {
			return nil, e.fail(origin, errs.InvalidInput, "failed to marshal updated record", err, nil)
		}
		key := driver.Key{"pk": next.PK, "sk": next.SK}

		expectedVersion := rawCurrent["meta"].(map[string]interface{})["version"]
		err = e.withTransientRetry(ctx, origin, func() error {
			_, err := e.Driver.UpdateItem(ctx, driver.UpdateItemInput{
				TableName:                 e.TableName,
				Key:                       key,
				SetAttributes:             sets,
				ConditionExpression:       "#v = :v",
				ExpressionAttributeNames:  map[string]string{"#v": "meta.version"},
				ExpressionAttributeValues: map[string]interface{}{":v": expectedVersion},
			})
			return err
		})
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, driver.ErrConditionalCheckFailed) {
			return nil, e.transientOrFail(origin, err)
		}
		if attempt >= maxRetries {
			return nil, e.fail(origin, errs.ConcurrentModification, "optimistic lock retries exhausted", err, map[string]interface{}{"moderationId": moderationID, "attempts": attempt + 1})
		}
		if e.Metrics != nil {
			e.Metrics.RetryAttempted("optimistic")
		}

		time.Sleep(e.Config.OptimisticLockBackoff * time.Duration(attempt+1))
		current, rawCurrent, err = e.resolveByModerationID(ctx, moderationID)
		if err != nil {
			return nil, e.transientOrFail(origin, err)
		}
		if current == nil {
			return nil, e.fail(origin, errs.ModerationItemNotFound, "item disappeared during retry", nil, map[string]interface{}{"moderationId": moderationID})
		}
	}
}

// withTransientRetry calls fn at most Config.RetryMaxAttempts times in
// total, with exponential backoff between attempts, when it fails with driver.ErrTransient,
// via cenkalti/backoff (spec §5 "Transient-error retries"). Validation
// and not-found errors, and conditional-check failures, are returned
// immediately without retry — this loop is strictly the transient
// layer, kept distinct from the optimistic-lock retry loop around it
// (spec §9 "keep them distinct").
func (e *Engine) withTransientRetry(ctx context.Context, origin string, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.Config.RetryMaxAttempts-1)), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, driver.ErrConditionalCheckFailed) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, driver.ErrTransient) {
			if e.Metrics != nil {
				e.Metrics.RetryAttempted("transient")
			}
			return err // retryable
		}
		return backoff.Permanent(err)
	}, b)
}

// transientOrFail classifies a driver error: wraps it as
// errs.StorageTransient if it's (still) transient after retries,
// translates context cancellation to errs.Cancelled, passes an
// *errs.Error through unchanged, and reports any other driver error as
// errs.StorageTransient.
func (e *Engine) transientOrFail(origin string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return e.fail(origin, errs.Cancelled, "operation cancelled", err, nil)
	}
	if errors.Is(err, driver.ErrTransient) {
		return e.fail(origin, errs.StorageTransient, "storage driver transient error persisted past retry budget", err, nil)
	}
	var asErr *errs.Error
	if errors.As(err, &asErr) {
		return asErr
	}
	return e.fail(origin, errs.StorageTransient, fmt.Sprintf("storage driver error: %v", err), err, nil)
}

// GenerateModerationID returns a fresh v4 UUID (spec §6
// generateModerationId).
func (e *Engine) GenerateModerationID() string { return e.IDs.NewV4() }
