package mutation

import (
	"context"
	"errors"

	"github.com/contentguard/modstore/codec"
	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originCreate = "mutation.createModerationEntry"

// CreateModerationEntry implements spec §4.E createModerationEntry.
func (e *Engine) CreateModerationEntry(ctx context.Context, data map[string]interface{}, timestamp interface{}) (string, error) {
	if data == nil {
		return "", e.fail(originCreate, errs.InvalidInput, "data must be a plain object", nil, nil)
	}
	data = modutil.SafeObject(data)

	userID := modutil.SanitizeString(data["userId"])
	if err := e.Validator.Required(originCreate, "userId", userID); err != nil {
		return "", err
	}
	contentID := modutil.SanitizeString(data["contentId"])
	if err := e.Validator.Required(originCreate, "contentId", contentID); err != nil {
		return "", err
	}

	typeStr := modutil.SanitizeTextField(data["type"])
	if err := e.Validator.Enum(originCreate, "type", typeStr, typesAsStrings()); err != nil {
		return "", err
	}
	priorityStr := modutil.SanitizeTextField(data["priority"])
	if err := e.Validator.Enum(originCreate, "priority", priorityStr, prioritiesAsStrings()); err != nil {
		return "", err
	}

	statusStr := model.StatusPending
	if raw, ok := data["status"]; ok {
		s := modutil.SanitizeTextField(raw)
		if s != "" {
			if err := e.Validator.Enum(originCreate, "status", s, statusesAsStrings()); err != nil {
				return "", err
			}
			statusStr = model.Status(s)
		}
	}

	isPreApproved, _ := data["isPreApproved"].(bool)
	if isPreApproved {
		statusStr = model.StatusApproved
	}

	now := e.Clock.NowMillis()
	submittedAt := now
	if timestamp != nil {
		ts := modutil.SanitizeInteger(timestamp)
		if ts == nil {
			return "", e.fail(originCreate, errs.InvalidTimestamp, "timestamp is not numeric", nil, nil)
		}
		submittedAt = *ts
	}
	if err := e.Validator.SubmittedAtWindow(originCreate, submittedAt, now, e.Config.SubmittedAtMaxPast.Milliseconds(), e.Config.SubmittedAtMaxFuture.Milliseconds()); err != nil {
		return "", err
	}

	moderationID := ""
	if raw := modutil.SanitizeString(data["moderationId"]); raw != nil {
		if err := e.Validator.ModerationIDFormat(originCreate, *raw); err != nil {
			return "", err
		}
		existing, _, err := e.resolveByModerationID(ctx, *raw)
		if err != nil {
			return "", e.transientOrFail(originCreate, err)
		}
		if existing != nil {
			return "", e.fail(originCreate, errs.ModerationEntryAlreadyExists, "moderationId already in use", nil, map[string]interface{}{"moderationId": *raw})
		}
		moderationID = *raw
	} else {
		moderationID = e.IDs.NewV4()
	}

	dayKey, err := modutil.DayKeyFromTs(submittedAt)
	if err != nil {
		return "", e.fail(originCreate, errs.InvalidDayKey, "cannot derive dayKey", err, nil)
	}
	statusSubmittedAt, err := modutil.StatusSubmittedAtKey(string(statusStr), submittedAt)
	if err != nil {
		return "", e.fail(originCreate, errs.StatusSubmittedAtConsistency, "cannot derive statusSubmittedAt", err, nil)
	}

	it := &model.Item{
		ModerationID:      moderationID,
		UserID:            *userID,
		ContentID:         *contentID,
		PK:                modutil.PartitionKey(*userID),
		SK:                modutil.SortKey(submittedAt, moderationID),
		StatusSubmittedAt: statusSubmittedAt,
		DayKey:            dayKey,
		Type:              model.Type(typeStr),
		Priority:          model.Priority(priorityStr),
		Status:            statusStr,
		ModerationType:    model.ModerationTypeStandard,
		SubmittedAt:       submittedAt,
		IsPreApproved:     isPreApproved,
		IsSystemGenerated: boolField(data["isSystemGenerated"]),
		IsDeleted:         false,
		Notes:             []model.Note{},
		Meta: model.Meta{
			Version: 1,
			History: []model.HistoryEntry{{Action: "create", Actor: *userID, Timestamp: submittedAt}},
		},
	}
	if mt, ok := data["moderationType"]; ok {
		s := modutil.SanitizeTextField(mt)
		if s != "" {
			if err := e.Validator.Enum(originCreate, "moderationType", s, moderationTypesAsStrings()); err != nil {
				return "", err
			}
			it.ModerationType = model.ModerationType(s)
		}
	}
	if content, ok := data["content"]; ok && content != nil {
		it.Content = &model.Content{Raw: content}
		fp, err := codec.ContentFingerprint(content)
		if err != nil {
			return "", e.fail(originCreate, errs.InvalidInput, "failed to fingerprint content", err, nil)
		}
		it.ContentFingerprint = fp
	}

	if err := e.Validator.StructTags(originCreate, it); err != nil {
		return "", err
	}
	if err := e.Validator.Record(originCreate, it); err != nil {
		return "", err
	}

	diItem, err := codec.ToDriverItem(it)
	if err != nil {
		return "", e.fail(originCreate, errs.InvalidInput, "failed to marshal new record", err, nil)
	}

	err = e.withTransientRetry(ctx, originCreate, func() error {
		return e.Driver.PutItem(ctx, driver.PutItemInput{
			TableName:                e.TableName,
			Item:                     diItem,
			ConditionExpression:      "attribute_not_exists(#pk) AND attribute_not_exists(#sk)",
			ExpressionAttributeNames: map[string]string{"#pk": "pk", "#sk": "sk"},
		})
	})
	if err != nil {
		if errors.Is(err, driver.ErrConditionalCheckFailed) {
			return "", e.fail(originCreate, errs.ModerationEntryAlreadyExists, "pk+sk collision on create", err, map[string]interface{}{"moderationId": moderationID})
		}
		return "", e.transientOrFail(originCreate, err)
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("createModerationEntry")
	}
	e.log("moderationCreated", map[string]interface{}{"moderationId": moderationID, "userId": *userID, "status": string(statusStr)})
	return moderationID, nil
}

func boolField(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func typesAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.Types))
	for t := range model.Types {
		out[string(t)] = true
	}
	return out
}

func prioritiesAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.Priorities))
	for p := range model.Priorities {
		out[string(p)] = true
	}
	return out
}

func statusesAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.Statuses))
	for s := range model.Statuses {
		out[string(s)] = true
	}
	return out
}

func moderationTypesAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.ModerationTypes))
	for m := range model.ModerationTypes {
		out[string(m)] = true
	}
	return out
}

func actionsAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.Actions))
	for a := range model.Actions {
		out[string(a)] = true
	}
	return out
}

func tagStatusesAsStrings() map[string]bool {
	out := make(map[string]bool, len(model.TagStatuses))
	for t := range model.TagStatuses {
		out[string(t)] = true
	}
	return out
}
