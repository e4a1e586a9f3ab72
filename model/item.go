// Package model defines the moderation record store's core entity and
// the closed enumerations that constrain it.
//
// Grounded on the teacher's src/models/entity.go: a single struct
// carrying identity, classification, lifecycle timestamps, and a
// bounded audit trail, persisted and queried through a repository
// interface rather than exposing storage details to callers.
package model

// Type is the classification of the moderated content.
type Type string

const (
	TypeImage         Type = "image"
	TypeVideo         Type = "video"
	TypeText          Type = "text"
	TypeLink          Type = "link"
	TypeReport        Type = "report"
	TypeTags          Type = "tags"
	TypeEmoji         Type = "emoji"
	TypeIcon          Type = "icon"
	TypeTag           Type = "tag"
	TypePersonalTag   Type = "personal_tag"
	TypeGlobalTag     Type = "global_tag"
	TypeImageGallery  Type = "image_gallery"
	TypeGallery       Type = "gallery"
	TypeAudio         Type = "audio"
)

// Types is the closed set of valid Type values.
var Types = map[Type]bool{
	TypeImage: true, TypeVideo: true, TypeText: true, TypeLink: true,
	TypeReport: true, TypeTags: true, TypeEmoji: true, TypeIcon: true,
	TypeTag: true, TypePersonalTag: true, TypeGlobalTag: true,
	TypeImageGallery: true, TypeGallery: true, TypeAudio: true,
}

// galleryAliases groups type tokens that must be treated as the same
// family for querying while the originally-written token is preserved
// on the stored record (spec §3, §9).
var galleryAliases = map[Type]Type{
	TypeGallery:      TypeImageGallery,
	TypeImageGallery: TypeImageGallery,
}

// CanonicalFamily returns the type family token used for query planning
// and aliasing. gallery and image_gallery both canonicalize to
// image_gallery; every other type is its own family.
func CanonicalFamily(t Type) Type {
	if canon, ok := galleryAliases[t]; ok {
		return canon
	}
	return t
}

// tagFamily is the set of types for which TagStatus is meaningful.
var tagFamily = map[Type]bool{
	TypeTag: true, TypeTags: true, TypePersonalTag: true, TypeGlobalTag: true,
}

// IsTagFamily reports whether t is a tag-family type (spec Glossary).
func IsTagFamily(t Type) bool {
	return tagFamily[t]
}

// Priority is the urgency classification of a moderation item.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Priorities is the closed set of valid Priority values.
var Priorities = map[Priority]bool{
	PriorityUrgent: true, PriorityHigh: true, PriorityNormal: true, PriorityLow: true,
}

// Status is a moderation item's place in the review lifecycle.
type Status string

const (
	StatusPending              Status = "pending"
	StatusApproved             Status = "approved"
	StatusApprovedGlobal       Status = "approved_global"
	StatusRejected             Status = "rejected"
	StatusEscalated            Status = "escalated"
	StatusPendingResubmission  Status = "pending_resubmission"
	// StatusAll is not a real stored status; it is the query/count
	// sentinel meaning "no status filter".
	StatusAll Status = "all"
)

// Statuses is the closed set of valid stored Status values (excludes
// the StatusAll query sentinel).
var Statuses = map[Status]bool{
	StatusPending: true, StatusApproved: true, StatusApprovedGlobal: true,
	StatusRejected: true, StatusEscalated: true, StatusPendingResubmission: true,
}

// ModerationType distinguishes standard per-user moderation from
// global moderation (which yields approved_global on approve).
type ModerationType string

const (
	ModerationTypeStandard ModerationType = "standard"
	ModerationTypeGlobal   ModerationType = "global"
)

// ModerationTypes is the closed set of valid ModerationType values.
var ModerationTypes = map[ModerationType]bool{
	ModerationTypeStandard: true, ModerationTypeGlobal: true,
}

// Action is a moderator decision applied to an item.
type Action string

const (
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionPendingResubmission Action = "pending_resubmission"
)

// Actions is the closed set of valid Action values.
var Actions = map[Action]bool{
	ActionApprove: true, ActionReject: true, ActionPendingResubmission: true,
}

// TagStatus is meaningful only when Type is in the tag family.
type TagStatus string

const (
	TagStatusPending   TagStatus = "pending"
	TagStatusPublished TagStatus = "published"
)

// TagStatuses is the closed set of valid non-null TagStatus values.
var TagStatuses = map[TagStatus]bool{
	TagStatusPending: true, TagStatusPublished: true,
}

// Note is a single moderator annotation (spec §3 invariant 6).
type Note struct {
	Text    string `json:"text" validate:"required"`
	AddedBy string `json:"addedBy" validate:"required"`
	AddedAt int64  `json:"addedAt" validate:"required"`
}

// HistoryEntry is one entry in Meta.History (spec §3 invariant 7).
type HistoryEntry struct {
	Action    string                 `json:"action"`
	Timestamp int64                  `json:"timestamp"`
	Actor     string                 `json:"actor"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Meta carries the optimistic-concurrency version and the bounded
// mutation history, plus a couple of content-deletion side fields the
// mutation engine's updateModerationMeta operation can set.
type Meta struct {
	Version          int            `json:"version"`
	History          []HistoryEntry `json:"history"`
	ContentDeleted   *bool          `json:"contentDeleted,omitempty"`
	ContentDeletedAt *int64         `json:"contentDeletedAt,omitempty"`
	UpdatedBy        *string        `json:"updatedBy,omitempty"`
}

// Content is the item's payload, either a raw JSON-serializable value
// or a compressed envelope written by the codec package. Exactly one of
// Raw or Compressed is set on a given record; both nil means no content.
type Content struct {
	Raw        interface{}       `json:"-"`
	Compressed *CompressedContent `json:"-"`
}

// CompressedContent is the on-the-wire envelope for gzip-compressed
// content (spec §4.B): { _compressed: true, _format: "gzip", data:
// base64(bytes) }.
type CompressedContent struct {
	Compressed bool   `json:"_compressed"`
	Format     string `json:"_format"`
	Data       string `json:"data"`
}

// Item is one ModerationItem row (spec §3).
type Item struct {
	ModerationID string `json:"moderationId" validate:"required,uuid4"`
	UserID       string `json:"userId" validate:"required"`
	ContentID    string `json:"contentId" validate:"required"`

	// Key attributes, derived and re-derived by the mutation engine;
	// never accepted verbatim from caller input (spec §4.E).
	PK                string `json:"pk" validate:"required"`
	SK                string `json:"sk" validate:"required"`
	StatusSubmittedAt string `json:"statusSubmittedAt" validate:"required"`
	DayKey            string `json:"dayKey" validate:"required,len=8,numeric"`

	Type           Type           `json:"type" validate:"required"`
	Priority       Priority       `json:"priority" validate:"required"`
	Status         Status         `json:"status" validate:"required"`
	ModerationType ModerationType `json:"moderationType" validate:"required"`
	Action         *Action        `json:"action,omitempty"`
	TagStatus      *TagStatus     `json:"tagStatus,omitempty"`

	SubmittedAt      int64  `json:"submittedAt" validate:"required"`
	ActionedAt       *int64 `json:"actionedAt,omitempty"`
	EscalatedAt      *int64 `json:"escalatedAt,omitempty"`
	DeletedAt        *int64 `json:"deletedAt,omitempty"`
	ContentDeletedAt *int64 `json:"contentDeletedAt,omitempty"`

	ModeratedBy *string `json:"moderatedBy,omitempty"`
	EscalatedBy *string `json:"escalatedBy,omitempty"`

	IsDeleted         bool `json:"isDeleted"`
	IsPreApproved     bool `json:"isPreApproved"`
	IsSystemGenerated bool `json:"isSystemGenerated"`

	Content            *Content `json:"content,omitempty"`
	ContentFingerprint string   `json:"contentFingerprint,omitempty"`
	Notes              []Note   `json:"notes" validate:"dive"`
	Meta    Meta     `json:"meta"`

	Reason     *string `json:"reason,omitempty"`
	PublicNote *string `json:"publicNote,omitempty"`
}

// Clone returns a deep-enough copy of the item for safe-object
// mutation during updates: the Notes and Meta.History slices and the
// top-level pointer fields are copied, so appending to or writing
// through them never touches the original (spec §9 "Dynamic object
// configurations" / safeObject intent). Content, the Meta pointer
// fields (ContentDeleted, ContentDeletedAt, UpdatedBy) and each history
// entry's Details map are shared with the original, so callers replace
// them rather than writing through them.
func (it *Item) Clone() *Item {
	clone := *it
	if it.Action != nil {
		a := *it.Action
		clone.Action = &a
	}
	if it.TagStatus != nil {
		t := *it.TagStatus
		clone.TagStatus = &t
	}
	if it.ActionedAt != nil {
		v := *it.ActionedAt
		clone.ActionedAt = &v
	}
	if it.EscalatedAt != nil {
		v := *it.EscalatedAt
		clone.EscalatedAt = &v
	}
	if it.DeletedAt != nil {
		v := *it.DeletedAt
		clone.DeletedAt = &v
	}
	if it.ContentDeletedAt != nil {
		v := *it.ContentDeletedAt
		clone.ContentDeletedAt = &v
	}
	if it.ModeratedBy != nil {
		v := *it.ModeratedBy
		clone.ModeratedBy = &v
	}
	if it.EscalatedBy != nil {
		v := *it.EscalatedBy
		clone.EscalatedBy = &v
	}
	if it.Reason != nil {
		v := *it.Reason
		clone.Reason = &v
	}
	if it.PublicNote != nil {
		v := *it.PublicNote
		clone.PublicNote = &v
	}
	clone.Notes = append([]Note(nil), it.Notes...)
	clone.Meta.History = append([]HistoryEntry(nil), it.Meta.History...)
	return &clone
}
