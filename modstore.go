// Package modstore is the moderation persistence engine's public
// facade (spec §6 "Library-facing operations"), composing every
// sub-package into the single Store type callers construct and drive.
//
// Grounded on the teacher's src/models/entity.go EntityRepository: a
// struct wrapping a storage driver plus its collaborators (clock, ID
// generator, logger), exposing one method per domain operation rather
// than a generic CRUD surface.
package modstore

import (
	"context"

	"github.com/contentguard/modstore/clock"
	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/count"
	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/idgen"
	"github.com/contentguard/modstore/logging"
	"github.com/contentguard/modstore/metrics"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/modutil"
	"github.com/contentguard/modstore/mutation"
	"github.com/contentguard/modstore/query"
	"github.com/contentguard/modstore/schema"

	"github.com/prometheus/client_golang/prometheus"
)

// Re-exported so callers never need to import the errs package
// directly to branch on error kind (spec §7's closed enumeration).
type (
	ErrorKind = errs.Kind
	Error     = errs.Error
)

const (
	InvalidInput                 = errs.InvalidInput
	InvalidEnum                  = errs.InvalidEnum
	InvalidModerationId          = errs.InvalidModerationId
	InvalidTimestamp             = errs.InvalidTimestamp
	InvalidDayKey                = errs.InvalidDayKey
	FieldLengthExceeded          = errs.FieldLengthExceeded
	NotesLimitExceeded           = errs.NotesLimitExceeded
	ModerationEntryAlreadyExists = errs.ModerationEntryAlreadyExists
	ModerationItemNotFound       = errs.ModerationItemNotFound
	AlreadyDeleted               = errs.AlreadyDeleted
	ActionStatusInconsistent     = errs.ActionStatusInconsistent
	DeletedConsistency           = errs.DeletedConsistency
	ActionedAtConsistency        = errs.ActionedAtConsistency
	EscalatedConsistency         = errs.EscalatedConsistency
	StatusSubmittedAtConsistency = errs.StatusSubmittedAtConsistency
	ConcurrentModification       = errs.ConcurrentModification
	ContentCorrupted             = errs.ContentCorrupted
	PaginationTokenInvalid       = errs.PaginationTokenInvalid
	PaginationTokenExpired       = errs.PaginationTokenExpired
	PaginationTokenTooLarge      = errs.PaginationTokenTooLarge
	PaginationLimitExceeded      = errs.PaginationLimitExceeded
	QueryLimitExceeded           = errs.QueryLimitExceeded
	SchemaCreationFailed         = errs.SchemaCreationFailed
	StorageTransient             = errs.StorageTransient
	Cancelled                    = errs.Cancelled
	GetAllModerationCountsFailed = errs.GetAllModerationCountsFailed
)

// Item, Note, and the closed enumerations are re-exported so callers
// building `data`/`updates` maps have the stored-record shape at hand
// without importing the model package directly.
type (
	Item     = model.Item
	Note     = model.Note
	Type     = model.Type
	Priority = model.Priority
	Status   = model.Status
	Action   = model.Action
)

// Filters and Options are the query-family parameter/result shapes
// (spec §4.F).
type (
	Filters = query.Filters
	Options = query.Options
	Result  = query.Result
)

// CountFilters narrows countModerationItemsByStatus (spec §4.G).
type CountFilters = count.Filters

// Counts is getAllModerationCounts' result shape (spec §4.G).
type Counts = count.Counts

// Store is the moderation persistence engine. Construct one with New,
// wiring in a storage driver and the external collaborators named in
// spec §6; everything else (validation, schema, retries, metrics) is
// internal.
type Store struct {
	tableName string
	mutation  *mutation.Engine
	query     *query.Planner
	count     *count.Counter
	sink      errs.ErrorSink
}

// Options for constructing a Store. Driver is the only required field;
// everything else defaults to a reasonable production-ish value.
type StoreOptions struct {
	Driver    driver.Driver
	TableName string
	Config    config.Config
	Clock     clock.Clock
	IDs       idgen.Generator
	Logger    logging.Logger
	Sink      errs.ErrorSink
	Registry  prometheus.Registerer
}

// New builds a Store. Clock defaults to clock.System{}, IDs to
// idgen.System{}, Logger to a logging.StandardLogger, Sink to a
// logging.StandardErrorSink wrapping that logger, and Registry to a
// fresh prometheus.NewRegistry() so multiple Store instances in one
// process never collide on metric registration.
func New(opts StoreOptions) *Store {
	if opts.TableName == "" {
		opts.TableName = opts.Config.TableName
	}
	if opts.TableName == "" {
		opts.TableName = "moderation_items"
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.IDs == nil {
		opts.IDs = idgen.System{}
	}
	var stdLogger *logging.StandardLogger
	if opts.Logger == nil {
		stdLogger = logging.NewStandardLogger()
		opts.Logger = stdLogger
	}
	if opts.Sink == nil {
		opts.Sink = logging.NewStandardErrorSink(stdLogger)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	m := metrics.New(opts.Registry)
	eng := mutation.New(opts.Driver, opts.TableName, opts.Clock, opts.IDs, opts.Config, opts.Logger, opts.Sink, m)
	planner := query.New(opts.Driver, opts.TableName, opts.Clock, opts.Config, opts.Logger, opts.Sink, m)
	counter := count.New(opts.Driver, opts.TableName, opts.Config, opts.Logger, opts.Sink, m)

	return &Store{
		tableName: opts.TableName,
		mutation:  eng,
		query:     planner,
		count:     counter,
		sink:      opts.Sink,
	}
}

// CreateModerationSchema creates the table and its ten secondary
// indexes (spec §4.D). Safe to call every process startup.
func (s *Store) CreateModerationSchema(ctx context.Context, logger logging.Logger) error {
	return schema.CreateModerationSchema(ctx, s.mutation.Driver, s.tableName, logger, s.sink)
}

// GenerateModerationId mints a fresh v4 UUID (spec §6).
func (s *Store) GenerateModerationId() string {
	return s.mutation.GenerateModerationID()
}

// DayKeyFromTs derives the UTC-date dayKey from an epoch-millisecond
// timestamp (spec §4.A).
func (s *Store) DayKeyFromTs(ts int64) (string, error) {
	return modutil.DayKeyFromTs(ts)
}

// StatusSubmittedAtKey derives the statusSubmittedAt composite sort key
// (spec §4.A).
func (s *Store) StatusSubmittedAtKey(status string, submittedAt int64) (string, error) {
	return modutil.StatusSubmittedAtKey(status, submittedAt)
}

// CreateModerationEntry implements spec §4.E createModerationEntry.
func (s *Store) CreateModerationEntry(ctx context.Context, data map[string]interface{}, timestamp interface{}) (string, error) {
	return s.mutation.CreateModerationEntry(ctx, data, timestamp)
}

// UpdateModerationEntry implements spec §4.E updateModerationEntry.
func (s *Store) UpdateModerationEntry(ctx context.Context, moderationID string, updates map[string]interface{}, userID string) error {
	return s.mutation.UpdateModerationEntry(ctx, moderationID, updates, userID)
}

// AddNote implements spec §4.E addNote.
func (s *Store) AddNote(ctx context.Context, moderationID, userID, text, addedBy string) error {
	return s.mutation.AddNote(ctx, moderationID, userID, text, addedBy)
}

// ApplyModerationAction implements spec §4.E applyModerationAction.
func (s *Store) ApplyModerationAction(ctx context.Context, moderationID, userID string, action Action, moderatorID string, reason, note, publicNote *string, moderationType *model.ModerationType) error {
	return s.mutation.ApplyModerationAction(ctx, moderationID, userID, action, moderatorID, reason, note, publicNote, moderationType)
}

// EscalateModerationItem implements spec §4.E escalateModerationItem.
func (s *Store) EscalateModerationItem(ctx context.Context, moderationID, userID, escalatedBy string) error {
	return s.mutation.EscalateModerationItem(ctx, moderationID, userID, escalatedBy)
}

// UpdateModerationMeta implements spec §4.E updateModerationMeta.
func (s *Store) UpdateModerationMeta(ctx context.Context, moderationID, userID string, metaUpdates map[string]interface{}) error {
	return s.mutation.UpdateModerationMeta(ctx, moderationID, userID, metaUpdates)
}

// SoftDeleteModerationItem implements spec §4.E softDeleteModerationItem.
func (s *Store) SoftDeleteModerationItem(ctx context.Context, moderationID, userID string, deletedBy *string) error {
	return s.mutation.SoftDeleteModerationItem(ctx, moderationID, userID, deletedBy)
}

// HardDeleteModerationItem implements spec §4.E hardDeleteModerationItem.
func (s *Store) HardDeleteModerationItem(ctx context.Context, moderationID, userID string) (bool, error) {
	return s.mutation.HardDeleteModerationItem(ctx, moderationID, userID)
}

// GetModerationItems implements the generic spec §4.F query shape;
// every convenience getter below is a thin wrapper over this with one
// filter field pre-populated.
func (s *Store) GetModerationItems(ctx context.Context, filters Filters, opts Options) (Result, error) {
	return s.query.GetModerationItems(ctx, filters, opts)
}

// GetModerationItemsByStatus implements spec §6 getModerationItemsByStatus.
func (s *Store) GetModerationItemsByStatus(ctx context.Context, status string, opts Options) (Result, error) {
	return s.query.GetModerationItems(ctx, Filters{Status: &status}, opts)
}

// GetAllByDate implements spec §6 getAllByDate.
func (s *Store) GetAllByDate(ctx context.Context, dayKey string, opts Options) (Result, error) {
	return s.query.GetModerationItems(ctx, Filters{DayKey: &dayKey}, opts)
}

// GetUserModerationItemsByStatus implements spec §6
// getUserModerationItemsByStatus.
func (s *Store) GetUserModerationItemsByStatus(ctx context.Context, userID, status string, opts Options) (Result, error) {
	f := Filters{UserID: &userID}
	if status != "" {
		f.Status = &status
	}
	return s.query.GetModerationItems(ctx, f, opts)
}

// GetModerationItemsByPriority implements spec §6
// getModerationItemsByPriority.
func (s *Store) GetModerationItemsByPriority(ctx context.Context, priority string, opts Options) (Result, error) {
	return s.query.GetModerationItems(ctx, Filters{Priority: &priority}, opts)
}

// GetModerationItemsByType implements spec §6 getModerationItemsByType.
func (s *Store) GetModerationItemsByType(ctx context.Context, typ string, opts Options) (Result, error) {
	return s.query.GetModerationItems(ctx, Filters{Type: &typ}, opts)
}

// GetRecentlyActionedByStatus queries the ActionedAt index (spec §4.D
// "Recently actioned, by status"), a narrower operation than the
// generic query(filters, options) shape, which never selects this
// index per §4.F's closed priority list.
func (s *Store) GetRecentlyActionedByStatus(ctx context.Context, status string, opts Options) (Result, error) {
	return s.query.GetRecentlyActionedByStatus(ctx, status, opts)
}

// GetModerationRecordById implements spec §4.F getModerationRecordById.
func (s *Store) GetModerationRecordById(ctx context.Context, moderationID, userID string, includeDeleted bool) (*Item, error) {
	return s.query.GetModerationRecordByID(ctx, moderationID, userID, includeDeleted)
}

// CountModerationItemsByStatus implements spec §4.G
// countModerationItemsByStatus.
func (s *Store) CountModerationItemsByStatus(ctx context.Context, status string, filters CountFilters) (int, error) {
	return s.count.CountModerationItemsByStatus(ctx, status, filters)
}

// GetAllModerationCounts implements spec §4.G getAllModerationCounts.
func (s *Store) GetAllModerationCounts(ctx context.Context) (Counts, error) {
	return s.count.GetAllModerationCounts(ctx)
}
