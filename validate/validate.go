// Package validate implements the moderation engine's validator (spec
// §4.C): per-field checks, cross-field invariant checks (spec §3), and
// timestamp-window enforcement, all reporting through errs.ErrorSink.
//
// Grounded on the teacher's src/models/entity_query.go validation
// helpers (enum/required-field checks run before a query or write is
// issued) and enriched with github.com/go-playground/validator/v10 for
// the per-field struct-tag layer, the way kubernaut layers it over
// hand-written cross-field checks rather than replacing them outright.
package validate

import (
	"fmt"
	"regexp"

	playground "github.com/go-playground/validator/v10"

	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
)

// UUIDv4Pattern matches the canonical 8-4-4-4-12 lower-hex UUID v4
// form (spec §3).
var UUIDv4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// playgroundValidate is a single shared struct validator instance, the
// way kubernaut keeps one validator.Validate per process instead of
// allocating per call.
var playgroundValidate = playground.New()

// Validator runs the engine's field and cross-field checks. Every
// mutation routes its candidate record through Record before
// issuing a write (spec §4.E "sanitize → validate → ...").
type Validator struct {
	cfg  config.Config
	sink errs.ErrorSink
}

// New builds a Validator bound to cfg's field-length limits, reporting
// failures to sink (may be nil).
func New(cfg config.Config, sink errs.ErrorSink) *Validator {
	return &Validator{cfg: cfg, sink: sink}
}

func (v *Validator) fail(origin string, kind errs.Kind, message string, data map[string]interface{}) *errs.Error {
	return errs.New(v.sink, kind, origin, message, nil, data)
}

// ModerationIDFormat validates id against the canonical UUID v4
// pattern (spec §3, §4.C).
func (v *Validator) ModerationIDFormat(origin, id string) error {
	if id == "" || !UUIDv4Pattern.MatchString(id) {
		return v.fail(origin, errs.InvalidModerationId, "moderationId fails UUID v4 format check", map[string]interface{}{"moderationId": id})
	}
	return nil
}

// Enum validates that value is a member of set, reporting InvalidEnum
// with field named in data otherwise.
func (v *Validator) Enum(origin, field, value string, set map[string]bool) error {
	if !set[value] {
		return v.fail(origin, errs.InvalidEnum, fmt.Sprintf("%s value %q is not in the allowed set", field, value), map[string]interface{}{"field": field, "value": value})
	}
	return nil
}

// Required checks a sanitized pointer is non-nil, reporting
// InvalidInput with field named otherwise.
func (v *Validator) Required(origin, field string, value *string) error {
	if value == nil || *value == "" {
		return v.fail(origin, errs.InvalidInput, fmt.Sprintf("required field %q is missing", field), map[string]interface{}{"field": field})
	}
	return nil
}

// PlainObject rejects v if it is not a map[string]interface{} (spec
// §4.A isPlainObject / §4.E "data must be a plain object").
func (v *Validator) PlainObject(origin, field string, value interface{}) error {
	if !modutil.IsPlainObject(value) {
		return v.fail(origin, errs.InvalidInput, fmt.Sprintf("%s must be a plain object", field), map[string]interface{}{"field": field})
	}
	return nil
}

// MaxLength enforces a bounded-field maximum, reporting
// FieldLengthExceeded otherwise.
func (v *Validator) MaxLength(origin, field, value string, max int) error {
	if len(value) > max {
		return v.fail(origin, errs.FieldLengthExceeded, fmt.Sprintf("%s exceeds maximum length %d", field, max), map[string]interface{}{"field": field, "length": len(value), "max": max})
	}
	return nil
}

// Note validates a single note's structure (spec §3 invariant 6).
func (v *Validator) Note(origin string, note model.Note) error {
	if note.Text == "" {
		return v.fail(origin, errs.InvalidInput, "note text is empty", map[string]interface{}{"addedBy": note.AddedBy})
	}
	if note.AddedBy == "" {
		return v.fail(origin, errs.InvalidInput, "note addedBy is empty", nil)
	}
	if note.AddedAt <= 0 {
		return v.fail(origin, errs.InvalidInput, "note addedAt is not a positive timestamp", nil)
	}
	return v.MaxLength(origin, "note.text", note.Text, v.cfg.MaxNoteLength)
}

// NotesCapacity rejects adding a note when the item is already at
// capacity (spec §4.E addNote, §8 scenario 10).
func (v *Validator) NotesCapacity(origin string, currentCount int) error {
	if currentCount >= v.cfg.MaxNotesPerItem {
		return v.fail(origin, errs.NotesLimitExceeded, fmt.Sprintf("item already has %d notes (max %d)", currentCount, v.cfg.MaxNotesPerItem), map[string]interface{}{"count": currentCount, "max": v.cfg.MaxNotesPerItem})
	}
	return nil
}

// SubmittedAtWindow enforces the ±5y/+5m clock-skew window (spec §3
// invariant 9, §4.C). now is epoch ms from the Clock collaborator.
func (v *Validator) SubmittedAtWindow(origin string, submittedAt, now int64, maxPast, maxFuture int64) error {
	if submittedAt <= 0 {
		return v.fail(origin, errs.InvalidTimestamp, "submittedAt is not a positive integer", map[string]interface{}{"submittedAt": submittedAt})
	}
	if submittedAt < now-maxPast || submittedAt > now+maxFuture {
		return v.fail(origin, errs.InvalidTimestamp, "submittedAt is outside the allowed window", map[string]interface{}{"submittedAt": submittedAt, "now": now})
	}
	return nil
}

// StatusSubmittedAtConsistency checks invariant 1.
func (v *Validator) StatusSubmittedAtConsistency(origin string, it *model.Item) error {
	want := fmt.Sprintf("%s#%d", it.Status, it.SubmittedAt)
	if it.StatusSubmittedAt != want {
		return v.fail(origin, errs.StatusSubmittedAtConsistency, "statusSubmittedAt does not match status+submittedAt", map[string]interface{}{"statusSubmittedAt": it.StatusSubmittedAt, "want": want})
	}
	return nil
}

// DayKeyConsistency checks invariant 2.
func (v *Validator) DayKeyConsistency(origin string, it *model.Item) error {
	want, err := modutil.DayKeyFromTs(it.SubmittedAt)
	if err != nil {
		return v.fail(origin, errs.InvalidDayKey, "dayKey cannot be derived from submittedAt", map[string]interface{}{"submittedAt": it.SubmittedAt})
	}
	if it.DayKey != want {
		return v.fail(origin, errs.InvalidDayKey, "dayKey does not match UTC date of submittedAt", map[string]interface{}{"dayKey": it.DayKey, "want": want})
	}
	return nil
}

// DeletedConsistency checks invariant 3.
func (v *Validator) DeletedConsistency(origin string, it *model.Item) error {
	if it.IsDeleted != (it.DeletedAt != nil) {
		return v.fail(origin, errs.DeletedConsistency, "isDeleted and deletedAt are inconsistent", nil)
	}
	return nil
}

// ActionedAtConsistency checks invariant 4's forward direction only:
// a recorded action requires actionedAt to be set. The reverse does
// not hold — escalateModerationItem sets actionedAt without setting
// action (spec §4.E escalateModerationItem), the same kind of
// biconditional-vs-scenario tension EscalatedConsistency resolves
// below, so an escalated-but-not-yet-actioned record must not be
// rejected here.
func (v *Validator) ActionedAtConsistency(origin string, it *model.Item) error {
	if it.Action != nil && it.ActionedAt == nil {
		return v.fail(origin, errs.ActionedAtConsistency, "action is set without actionedAt", nil)
	}
	return nil
}

// EscalatedConsistency checks invariant 5's forward direction only:
// status==escalated requires escalatedBy to be set. The reverse
// direction (escalatedBy implies status==escalated) is deliberately
// not enforced — spec §8 scenario 5 (escalate then approve) leaves
// escalatedBy populated on a record whose final status is approved,
// which the literal biconditional would reject. Once a record has
// been escalated, escalatedBy is kept as a historical marker even
// after it moves on to a terminal status.
func (v *Validator) EscalatedConsistency(origin string, it *model.Item) error {
	if it.Status == model.StatusEscalated && it.EscalatedBy == nil {
		return v.fail(origin, errs.EscalatedConsistency, "status=escalated requires escalatedBy to be set", nil)
	}
	return nil
}

// TagStatusConsistency checks invariant 10.
func (v *Validator) TagStatusConsistency(origin string, it *model.Item) error {
	shouldHave := model.IsTagFamily(it.Type) && it.Action != nil
	has := it.TagStatus != nil
	if shouldHave != has {
		return v.fail(origin, errs.InvalidInput, "tagStatus presence does not match type-family/action rule", map[string]interface{}{"type": it.Type, "hasAction": it.Action != nil, "hasTagStatus": has})
	}
	return nil
}

// NotesInvariant checks invariant 6 across the whole notes slice.
func (v *Validator) NotesInvariant(origin string, it *model.Item) error {
	if len(it.Notes) > v.cfg.MaxNotesPerItem {
		return v.fail(origin, errs.NotesLimitExceeded, "notes exceed the per-item cap", map[string]interface{}{"count": len(it.Notes)})
	}
	for _, n := range it.Notes {
		if err := v.Note(origin, n); err != nil {
			return err
		}
	}
	return nil
}

// HistoryInvariant checks invariant 7.
func (v *Validator) HistoryInvariant(origin string, it *model.Item) error {
	if len(it.Meta.History) > v.cfg.MaxHistoryEntries {
		return v.fail(origin, errs.InvalidInput, "meta.history exceeds the per-item cap", map[string]interface{}{"count": len(it.Meta.History)})
	}
	return nil
}

// Record runs every cross-field invariant (spec §3 invariants 1,2,3,4,
//5,6,7,10) against it, short-circuiting on the first violation. This
// is what createModerationEntry/updateModerationEntry/etc. call on the
// proposed post-mutation record before issuing the conditional write
// (spec §4.C "Cross-field invariants").
func (v *Validator) Record(origin string, it *model.Item) error {
	checks := []func(string, *model.Item) error{
		v.StatusSubmittedAtConsistency,
		v.DayKeyConsistency,
		v.DeletedConsistency,
		v.ActionedAtConsistency,
		v.EscalatedConsistency,
		v.TagStatusConsistency,
		v.NotesInvariant,
		v.HistoryInvariant,
	}
	for _, check := range checks {
		if err := check(origin, it); err != nil {
			return err
		}
	}
	return nil
}

// StructTags runs go-playground/validator's struct-tag layer over v,
// translating its first error into an *errs.Error. This backstops the
// hand-written checks above for the plain per-field constraints
// (required/min/max/oneof) that are more naturally expressed as tags
// than as imperative code.
func (val *Validator) StructTags(origin string, v interface{}) error {
	if err := playgroundValidate.Struct(v); err != nil {
		if verrs, ok := err.(playground.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return val.fail(origin, errs.InvalidInput, fmt.Sprintf("field %q failed %q validation", fe.Field(), fe.Tag()), map[string]interface{}{"field": fe.Field(), "tag": fe.Tag()})
		}
		return val.fail(origin, errs.InvalidInput, err.Error(), nil)
	}
	return nil
}
