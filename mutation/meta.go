package mutation

import (
	"context"

	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originMeta = "mutation.updateModerationMeta"

// allowedMetaFields are the only metaUpdates keys UpdateModerationMeta
// merges (spec §4.E updateModerationMeta); any other key is ignored.
var allowedMetaFields = map[string]bool{
	"history": true, "contentDeleted": true, "contentDeletedAt": true, "updatedBy": true,
}

func filterAllowedMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if allowedMetaFields[k] {
			out[k] = v
		}
	}
	return out
}

// UpdateModerationMeta implements spec §4.E updateModerationMeta.
func (e *Engine) UpdateModerationMeta(ctx context.Context, moderationID, userID string, metaUpdates map[string]interface{}) error {
	if err := e.Validator.ModerationIDFormat(originMeta, moderationID); err != nil {
		return err
	}
	if metaUpdates == nil {
		return e.fail(originMeta, errs.InvalidInput, "metaUpdates must be a plain object", nil, nil)
	}
	metaUpdates = filterAllowedMeta(modutil.SafeObject(metaUpdates))

	now := e.Clock.NowMillis()
	_, err := e.conditionalWrite(ctx, originMeta, moderationID, e.Config.OptimisticLockMaxRetries, func(current *model.Item) (*model.Item, error) {
		next := current.Clone()

		if v, ok := metaUpdates["history"]; ok {
			items, ok := v.([]interface{})
			if !ok {
				return nil, e.fail(originMeta, errs.InvalidInput, "history must be an array", nil, nil)
			}
			for _, raw := range items {
				m, ok := raw.(map[string]interface{})
				if !ok {
					return nil, e.fail(originMeta, errs.InvalidInput, "malformed history entry", nil, nil)
				}
				entry := model.HistoryEntry{
					Action:    modutil.SanitizeTextField(m["action"]),
					Actor:     modutil.SanitizeTextField(m["actor"]),
					Timestamp: now,
				}
				if ts := modutil.SanitizeInteger(m["timestamp"]); ts != nil {
					entry.Timestamp = *ts
				}
				if details, ok := m["details"].(map[string]interface{}); ok {
					entry.Details = modutil.SafeObject(details)
				}
				next.Meta.History = modutil.AppendHistory(next.Meta.History, entry, e.Config.MaxHistoryEntries)
			}
		}
		if v, ok := metaUpdates["contentDeleted"]; ok {
			b := boolField(v)
			next.Meta.ContentDeleted = &b
		}
		if v, ok := metaUpdates["contentDeletedAt"]; ok {
			if ts := modutil.SanitizeInteger(v); ts != nil {
				next.Meta.ContentDeletedAt = ts
			}
		}
		if v, ok := metaUpdates["updatedBy"]; ok {
			if s := modutil.SanitizeString(v); s != nil {
				next.Meta.UpdatedBy = s
			}
		}

		next.Meta.Version++
		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("updateModerationMeta")
	}
	e.log("moderationMetaUpdated", map[string]interface{}{"moderationId": moderationID, "userId": userID})
	return nil
}
