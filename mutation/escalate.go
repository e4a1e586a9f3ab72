package mutation

import (
	"context"

	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originEscalate = "mutation.escalateModerationItem"

// EscalateModerationItem implements spec §4.E escalateModerationItem.
// Re-escalating an already-escalated item is idempotent in the sense
// that it succeeds and records a new history entry rather than erroring
// (spec §4.E, §8 scenario 5).
func (e *Engine) EscalateModerationItem(ctx context.Context, moderationID, userID, escalatedBy string) error {
	if err := e.Validator.ModerationIDFormat(originEscalate, moderationID); err != nil {
		return err
	}
	if escalatedBy == "" {
		return e.fail(originEscalate, errs.InvalidInput, "escalatedBy is required", nil, nil)
	}

	now := e.Clock.NowMillis()
	_, err := e.conditionalWrite(ctx, originEscalate, moderationID, e.Config.OptimisticLockMaxRetries, func(current *model.Item) (*model.Item, error) {
		next := current.Clone()
		next.Status = model.StatusEscalated
		next.EscalatedBy = &escalatedBy
		next.EscalatedAt = &now
		next.ActionedAt = &now

		statusSubmittedAt, err := modutil.StatusSubmittedAtKey(string(next.Status), next.SubmittedAt)
		if err != nil {
			return nil, e.fail(originEscalate, errs.StatusSubmittedAtConsistency, "cannot rederive statusSubmittedAt", err, nil)
		}
		next.StatusSubmittedAt = statusSubmittedAt

		next.Meta.History = modutil.AppendHistory(next.Meta.History, model.HistoryEntry{
			Action: "itemEscalated", Actor: escalatedBy, Timestamp: now,
		}, e.Config.MaxHistoryEntries)
		next.Meta.Version++
		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("escalateModerationItem")
	}
	e.log("itemEscalated", map[string]interface{}{"moderationId": moderationID, "escalatedBy": escalatedBy})
	return nil
}
