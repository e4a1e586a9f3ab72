package mutation

import (
	"context"

	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

const originAddNote = "mutation.addNote"

// AddNote implements spec §4.E addNote.
func (e *Engine) AddNote(ctx context.Context, moderationID, userID, text, addedBy string) error {
	if err := e.Validator.ModerationIDFormat(originAddNote, moderationID); err != nil {
		return err
	}
	if userID == "" {
		return e.fail(originAddNote, errs.InvalidInput, "userId is required", nil, nil)
	}
	sanitizedText := modutil.SanitizeTextField(text)
	sanitizedAddedBy := modutil.SanitizeTextField(addedBy)

	now := e.Clock.NowMillis()
	note := model.Note{Text: sanitizedText, AddedBy: sanitizedAddedBy, AddedAt: now}
	if err := e.Validator.Note(originAddNote, note); err != nil {
		return err
	}

	_, err := e.conditionalWrite(ctx, originAddNote, moderationID, e.Config.OptimisticLockMaxRetries, func(current *model.Item) (*model.Item, error) {
		if err := e.Validator.NotesCapacity(originAddNote, len(current.Notes)); err != nil {
			return nil, err
		}
		next := current.Clone()
		next.Notes = append(next.Notes, note)
		next.Meta.History = modutil.AppendHistory(next.Meta.History, model.HistoryEntry{
			Action: "noteAdded", Actor: userID, Timestamp: now,
		}, e.Config.MaxHistoryEntries)
		next.Meta.Version++
		return next, nil
	})
	if err != nil {
		return err
	}

	if e.Metrics != nil {
		e.Metrics.MutationSucceeded("addNote")
	}
	e.log("noteAdded", map[string]interface{}{"moderationId": moderationID, "userId": userID})
	return nil
}
