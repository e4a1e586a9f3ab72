// Package schema creates the moderation table and its ten secondary
// indexes (spec §4.D).
//
// Grounded on the teacher's schema-adjacent bootstrapping in
// src/config/config.go (idempotent, env-driven setup run once at
// startup) generalized here to table/index creation instead of
// config-file creation.
package schema

import (
	"context"
	"errors"

	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/logging"
)

// IndexNames are the stable names of the ten secondary indexes (spec
// §4.D), exported so the query/count packages can reference them
// without retyping string literals.
const (
	IndexStatusDate      = "StatusDate"
	IndexUserStatusDate  = "UserStatusDate"
	IndexAllByDate       = "AllByDate"
	IndexPriority        = "Priority"
	IndexTypeDate        = "TypeDate"
	IndexByModerationID  = "ByModerationId"
	IndexModeratedBy     = "ModeratedBy"
	IndexContentID       = "ContentId"
	IndexEscalated       = "Escalated"
	IndexActionedAt      = "ActionedAt"
)

// Spec builds the TableSpec for tableName per spec §4.D's table.
func Spec(tableName string) driver.TableSpec {
	return driver.TableSpec{
		Name:         tableName,
		PartitionKey: "pk",
		SortKey:      "sk",
		Indexes: []driver.IndexSpec{
			{Name: IndexStatusDate, PartitionKey: "status", SortKey: "submittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexUserStatusDate, PartitionKey: "userId", SortKey: "statusSubmittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexAllByDate, PartitionKey: "dayKey", SortKey: "submittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexPriority, PartitionKey: "priority", SortKey: "submittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexTypeDate, PartitionKey: "type", SortKey: "submittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexByModerationID, PartitionKey: "moderationId", Projection: driver.ProjectionKeysOnly},
			{Name: IndexModeratedBy, PartitionKey: "moderatedBy", SortKey: "actionedAt", Projection: driver.ProjectionInclude},
			{Name: IndexContentID, PartitionKey: "contentId", SortKey: "submittedAt", Projection: driver.ProjectionInclude},
			{Name: IndexEscalated, PartitionKey: "escalatedBy", SortKey: "escalatedAt", Projection: driver.ProjectionInclude},
			{Name: IndexActionedAt, PartitionKey: "status", SortKey: "actionedAt", Projection: driver.ProjectionInclude},
		},
	}
}

// CreateModerationSchema creates the table and its ten indexes via d,
// billing mode pay-per-request being a property of the real backend
// this interface targets rather than something expressed in Go.
// Already-exists failures are reported to the error sink but do not
// propagate (spec §4.D "idempotent at the semantic level"); every
// other failure propagates as SchemaCreationFailed.
func CreateModerationSchema(ctx context.Context, d driver.Driver, tableName string, logger logging.Logger, sink errs.ErrorSink) error {
	err := d.CreateTable(ctx, Spec(tableName))
	if err == nil {
		if logger != nil {
			logger.WriteLog("MODERATIONS", "schemaCreated", map[string]interface{}{"table": tableName})
		}
		return nil
	}
	if errors.Is(err, driver.ErrAlreadyExists) {
		errs.New(sink, errs.SchemaCreationFailed, "schema.CreateModerationSchema", "table or index already exists", err, map[string]interface{}{"table": tableName})
		return nil
	}
	return errs.New(sink, errs.SchemaCreationFailed, "schema.CreateModerationSchema", "table/index creation failed", err, map[string]interface{}{"table": tableName})
}
