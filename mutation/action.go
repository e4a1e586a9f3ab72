package mutation

import (
	"context"

	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originApplyAction = "mutation.applyModerationAction"

// applicableActions encodes the state machine from spec §4.E: which
// actions are legal from which current status. An escalated item can
// still be approved or rejected, but unlike pending it does not accept
// pending_resubmission.
// Terminal statuses (approved, approved_global, rejected) accept no
// further action without an explicit workflow step the spec doesn't
// define, so every action from them is rejected.
var applicableActions = map[model.Status]map[model.Action]bool{
	model.StatusPending: {
		model.ActionApprove:             true,
		model.ActionReject:              true,
		model.ActionPendingResubmission: true,
	},
	model.StatusEscalated: {
		model.ActionApprove: true,
		model.ActionReject:  true,
	},
	model.StatusPendingResubmission: {
		model.ActionApprove:             true,
		model.ActionReject:              true,
		model.ActionPendingResubmission: true,
	},
}

// ApplyModerationAction implements spec §4.E applyModerationAction.
func (e *Engine) ApplyModerationAction(ctx context.Context, moderationID, userID string, action model.Action, moderatorID string, reason, note, publicNote *string, moderationType *model.ModerationType) error {
	if err := e.Validator.ModerationIDFormat(originApplyAction, moderationID); err != nil {
		return err
	}
	if err := e.Validator.Enum(originApplyAction, "action", string(action), actionsAsStrings()); err != nil {
		return err
	}
	mt := model.ModerationTypeStandard
	if moderationType != nil {
		if err := e.Validator.Enum(originApplyAction, "moderationType", string(*moderationType), moderationTypesAsStrings()); err != nil {
			return err
		}
		mt = *moderationType
	}
	if moderatorID == "" {
		return e.fail(originApplyAction, errs.InvalidInput, "moderatorId is required", nil, nil)
	}

	now := e.Clock.NowMillis()

	// applyModerationAction retries the conditional write at most once
	// (spec §5): maxRetries=1 bounds total attempts to 2.
	_, err := e.conditionalWrite(ctx, originApplyAction, moderationID, 1, func(current *model.Item) (*model.Item, error) {
		if allowed, ok := applicableActions[current.Status]; !ok || !allowed[action] {
			return nil, e.fail(originApplyAction, errs.ActionStatusInconsistent, "action is not applicable from the current status", nil, map[string]interface{}{"status": current.Status, "action": action})
		}

		next := current.Clone()

		switch {
		case action == model.ActionPendingResubmission:
			// status is left unchanged (pending or pending_resubmission);
			// only action/actionedAt change (spec §9 open question).
		case action == model.ActionApprove && mt == model.ModerationTypeGlobal:
			next.Status = model.StatusApprovedGlobal
		case action == model.ActionApprove:
			next.Status = model.StatusApproved
		case action == model.ActionReject:
			next.Status = model.StatusRejected
		}

		next.ActionedAt = &now
		next.ModeratedBy = &moderatorID
		a := action
		next.Action = &a
		if reason != nil {
			sanitized := modutil.SanitizeTextField(*reason)
			if err := e.Validator.MaxLength(originApplyAction, "reason", sanitized, e.Config.MaxReasonLength); err != nil {
				return nil, err
			}
			next.Reason = &sanitized
		}
		if publicNote != nil {
			sanitized := modutil.SanitizeTextField(*publicNote)
			if err := e.Validator.MaxLength(originApplyAction, "publicNote", sanitized, e.Config.MaxPublicNoteLength); err != nil {
				return nil, err
			}
			next.PublicNote = &sanitized
		}

		if model.IsTagFamily(next.Type) {
			var ts model.TagStatus
			switch action {
			case model.ActionApprove:
				ts = model.TagStatusPublished
			case model.ActionReject, model.ActionPendingResubmission:
				ts = model.TagStatusPending
			}
			if ts != "" {
				next.TagStatus = &ts
			}
		} else {
			next.TagStatus = nil
		}

		if note != nil {
			sanitizedNote := modutil.SanitizeTextField(*note)
			n := model.Note{Text: sanitizedNote, AddedBy: moderatorID, AddedAt: now}
			if err := e.Validator.Note(originApplyAction, n); err != nil {
				return nil, err
			}
			if err := e.Validator.NotesCapacity(originApplyAction, len(next.Notes)); err != nil {
				return nil, err
			}
			next.Notes = append(next.Notes, n)
		}

		statusSubmittedAt, err := modutil.StatusSubmittedAtKey(string(next.Status), next.SubmittedAt)
		if err != nil {
			return nil, e.fail(originApplyAction, errs.StatusSubmittedAtConsistency, "cannot rederive statusSubmittedAt", err, nil)
		}
		next.StatusSubmittedAt = statusSubmittedAt

		next.Meta.History = modutil.AppendHistory(next.Meta.History, model.HistoryEntry{
			Action: "moderationActioned", Actor: moderatorID, Timestamp: now,
			Details: map[string]interface{}{"action": string(action), "status": string(next.Status)},
		}, e.Config.MaxHistoryEntries)
		next.Meta.Version++

		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("applyModerationAction")
	}
	e.log("moderationActioned", map[string]interface{}{"moderationId": moderationID, "action": string(action), "moderatorId": moderatorID})
	return nil
}
