package mutation

import (
	"context"

	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const (
	originSoftDelete = "mutation.softDeleteModerationItem"
	originHardDelete = "mutation.hardDeleteModerationItem"
)

// SoftDeleteModerationItem implements spec §4.E softDeleteModerationItem.
func (e *Engine) SoftDeleteModerationItem(ctx context.Context, moderationID, userID string, deletedBy *string) error {
	if err := e.Validator.ModerationIDFormat(originSoftDelete, moderationID); err != nil {
		return err
	}

	now := e.Clock.NowMillis()
	_, err := e.conditionalWrite(ctx, originSoftDelete, moderationID, e.Config.OptimisticLockMaxRetries, func(current *model.Item) (*model.Item, error) {
		if current.IsDeleted {
			return nil, e.fail(originSoftDelete, errs.AlreadyDeleted, "item is already soft-deleted", nil, map[string]interface{}{"moderationId": moderationID})
		}
		next := current.Clone()
		next.IsDeleted = true
		next.DeletedAt = &now

		actor := userID
		if deletedBy != nil && *deletedBy != "" {
			actor = *deletedBy
		}
		next.Meta.History = modutil.AppendHistory(next.Meta.History, model.HistoryEntry{
			Action: "softDelete", Actor: actor, Timestamp: now,
		}, e.Config.MaxHistoryEntries)
		next.Meta.Version++
		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("softDeleteModerationItem")
	}
	e.log("itemSoftDeleted", map[string]interface{}{"moderationId": moderationID, "userId": userID})
	return nil
}

// HardDeleteModerationItem implements spec §4.E hardDeleteModerationItem.
// A missing item returns (false, nil) — not found is not an error here.
func (e *Engine) HardDeleteModerationItem(ctx context.Context, moderationID, userID string) (bool, error) {
	if err := e.Validator.ModerationIDFormat(originHardDelete, moderationID); err != nil {
		return false, err
	}

	current, _, err := e.resolveByModerationID(ctx, moderationID)
	if err != nil {
		return false, e.transientOrFail(originHardDelete, err)
	}
	if current == nil {
		return false, nil
	}

	err = e.withTransientRetry(ctx, originHardDelete, func() error {
		return e.Driver.DeleteItem(ctx, driver.DeleteItemInput{
			TableName: e.TableName,
			Key:       driver.Key{"pk": current.PK, "sk": current.SK},
		})
	})
	if err != nil {
		return false, e.transientOrFail(originHardDelete, err)
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("hardDeleteModerationItem")
	}
	e.log("itemHardDeleted", map[string]interface{}{"moderationId": moderationID, "userId": userID})
	return true, nil
}
