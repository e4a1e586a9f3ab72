package mutation

import (
	"context"

	"github.com/contentguard/modstore/codec"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originUpdate = "mutation.updateModerationEntry"

// allowedUpdateFields are the only top-level fields updateModerationEntry
// will merge from the caller's updates map; everything else (notably
// submittedAt and moderationId) is silently ignored (spec §4.E).
var allowedUpdateFields = map[string]bool{
	"type": true, "priority": true, "contentId": true,
	"action": true, "status": true,
	"isSystemGenerated": true, "isPreApproved": true,
	"isDeleted": true, "deletedAt": true,
	"notes": true, "content": true,
	"reason": true, "publicNote": true,
}

// UpdateModerationEntry implements spec §4.E updateModerationEntry.
func (e *Engine) UpdateModerationEntry(ctx context.Context, moderationID string, updates map[string]interface{}, userID string) error {
	if err := e.Validator.ModerationIDFormat(originUpdate, moderationID); err != nil {
		return err
	}
	if userID == "" {
		return e.fail(originUpdate, errs.InvalidInput, "userId is required", nil, nil)
	}
	if updates == nil {
		return e.fail(originUpdate, errs.InvalidInput, "updates must be a plain object", nil, nil)
	}
	updates = modutil.SafeObject(updates)

	changed := make([]string, 0, len(updates))
	for k := range updates {
		if allowedUpdateFields[k] {
			changed = append(changed, k)
		}
	}

	now := e.Clock.NowMillis()
	_, err := e.conditionalWrite(ctx, originUpdate, moderationID, e.Config.OptimisticLockMaxRetries, func(current *model.Item) (*model.Item, error) {
		next := current.Clone()

		if v, ok := updates["type"]; ok {
			s := modutil.SanitizeTextField(v)
			if err := e.Validator.Enum(originUpdate, "type", s, typesAsStrings()); err != nil {
				return nil, err
			}
			next.Type = model.Type(s)
		}
		if v, ok := updates["priority"]; ok {
			s := modutil.SanitizeTextField(v)
			if err := e.Validator.Enum(originUpdate, "priority", s, prioritiesAsStrings()); err != nil {
				return nil, err
			}
			next.Priority = model.Priority(s)
		}
		if v, ok := updates["contentId"]; ok {
			if s := modutil.SanitizeString(v); s != nil {
				next.ContentID = *s
			}
		}
		if v, ok := updates["status"]; ok {
			s := modutil.SanitizeTextField(v)
			if err := e.Validator.Enum(originUpdate, "status", s, statusesAsStrings()); err != nil {
				return nil, err
			}
			next.Status = model.Status(s)
		}
		if v, ok := updates["action"]; ok {
			s := modutil.SanitizeTextField(v)
			if s == "" {
				next.Action = nil
			} else {
				if err := e.Validator.Enum(originUpdate, "action", s, actionsAsStrings()); err != nil {
					return nil, err
				}
				a := model.Action(s)
				next.Action = &a
			}
		}
		if v, ok := updates["isSystemGenerated"]; ok {
			next.IsSystemGenerated = boolField(v)
		}
		if v, ok := updates["isPreApproved"]; ok {
			next.IsPreApproved = boolField(v)
		}
		if v, ok := updates["isDeleted"]; ok {
			next.IsDeleted = boolField(v)
			if next.IsDeleted {
				if next.DeletedAt == nil {
					next.DeletedAt = &now
				}
			} else {
				next.DeletedAt = nil
			}
		}
		if v, ok := updates["deletedAt"]; ok {
			if ts := modutil.SanitizeInteger(v); ts != nil {
				next.DeletedAt = ts
				next.IsDeleted = true
			}
		}
		if v, ok := updates["reason"]; ok {
			s := modutil.SanitizeTextField(v)
			if err := e.Validator.MaxLength(originUpdate, "reason", s, e.Config.MaxReasonLength); err != nil {
				return nil, err
			}
			next.Reason = &s
		}
		if v, ok := updates["publicNote"]; ok {
			s := modutil.SanitizeTextField(v)
			if err := e.Validator.MaxLength(originUpdate, "publicNote", s, e.Config.MaxPublicNoteLength); err != nil {
				return nil, err
			}
			next.PublicNote = &s
		}
		if v, ok := updates["notes"]; ok {
			items, ok := v.([]interface{})
			if !ok {
				return nil, e.fail(originUpdate, errs.InvalidInput, "notes must be an array", nil, nil)
			}
			if len(items) > e.Config.MaxNotesPerItem {
				return nil, e.fail(originUpdate, errs.NotesLimitExceeded, "notes array exceeds the per-item cap", nil, map[string]interface{}{"count": len(items)})
			}
			parsed := make([]model.Note, 0, len(items))
			for _, raw := range items {
				m, ok := raw.(map[string]interface{})
				if !ok {
					return nil, e.fail(originUpdate, errs.InvalidInput, "malformed note entry", nil, nil)
				}
				n := model.Note{
					Text:    modutil.SanitizeTextField(m["text"]),
					AddedBy: modutil.SanitizeTextField(m["addedBy"]),
				}
				if ts := modutil.SanitizeInteger(m["addedAt"]); ts != nil {
					n.AddedAt = *ts
				}
				if err := e.Validator.Note(originUpdate, n); err != nil {
					return nil, err
				}
				parsed = append(parsed, n)
			}
			next.Notes = parsed
		}
		if v, ok := updates["content"]; ok {
			if v == nil {
				next.Content = nil
				next.ContentFingerprint = ""
			} else {
				next.Content = &model.Content{Raw: v}
				fp, err := codec.ContentFingerprint(v)
				if err != nil {
					return nil, e.fail(originUpdate, errs.InvalidInput, "failed to fingerprint content", err, nil)
				}
				next.ContentFingerprint = fp
			}
		}

		// Re-derive statusSubmittedAt/dayKey since status may have changed
		// (submittedAt itself is immutable post-create; spec §4.E).
		statusSubmittedAt, err := modutil.StatusSubmittedAtKey(string(next.Status), next.SubmittedAt)
		if err != nil {
			return nil, e.fail(originUpdate, errs.StatusSubmittedAtConsistency, "cannot rederive statusSubmittedAt", err, nil)
		}
		next.StatusSubmittedAt = statusSubmittedAt
		dayKey, err := modutil.DayKeyFromTs(next.SubmittedAt)
		if err != nil {
			return nil, e.fail(originUpdate, errs.InvalidDayKey, "cannot rederive dayKey", err, nil)
		}
		next.DayKey = dayKey

		next.Meta.History = modutil.AppendHistory(next.Meta.History, model.HistoryEntry{
			Action: "update", Actor: userID, Timestamp: now,
			Details: map[string]interface{}{"fieldsChanged": changed},
		}, e.Config.MaxHistoryEntries)
		next.Meta.Version++

		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("updateModerationEntry")
	}
	e.log("moderationUpdated", map[string]interface{}{"moderationId": moderationID, "userId": userID, "fieldsChanged": changed})
	return nil
}
