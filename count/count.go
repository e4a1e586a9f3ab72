// Package count implements the moderation engine's aggregate-count
// operations (spec §4.G): countModerationItemsByStatus and
// getAllModerationCounts.
//
// Grounded on the teacher's src/models/entity_query.go COUNT-select
// usage pattern (a query issued with Select: COUNT rather than reading
// items back) generalized here to the bounded-iteration accumulation
// spec §4.G requires, since a single Query call only counts one page.
package count

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/contentguard/modstore/config"
	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/errs"
	"github.com/contentguard/modstore/logging"
	"github.com/contentguard/modstore/metrics"
	"github.com/contentguard/modstore/model"
	"github.com/contentguard/modstore/schema"
)

// Filters narrows a count (spec §4.G).
type Filters struct {
	UnmoderatedOnly     bool
	HasRejectionHistory bool
}

// Counter runs countModerationItemsByStatus/getAllModerationCounts
// against the storage driver.
type Counter struct {
	Driver    driver.Driver
	TableName string
	Config    config.Config
	Logger    logging.Logger
	Sink      errs.ErrorSink
	Metrics   *metrics.Recorder
}

func New(d driver.Driver, tableName string, cfg config.Config, logger logging.Logger, sink errs.ErrorSink, m *metrics.Recorder) *Counter {
	return &Counter{Driver: d, TableName: tableName, Config: cfg, Logger: logger, Sink: sink, Metrics: m}
}

func (c *Counter) fail(origin string, kind errs.Kind, message string, cause error, data map[string]interface{}) *errs.Error {
	return errs.New(c.Sink, kind, origin, message, cause, data)
}

// CountModerationItemsByStatus implements spec §4.G
// countModerationItemsByStatus(status, filters?). status="all" counts
// across every status; any other value counts a single status via the
// StatusDate index's COUNT select.
func (c *Counter) CountModerationItemsByStatus(ctx context.Context, status string, f Filters) (int, error) {
	const origin = "count.countModerationItemsByStatus"

	if status == string(model.StatusAll) {
		total := 0
		for s := range model.Statuses {
			n, err := c.countOneStatus(ctx, origin, string(s), f)
			if err != nil {
				return 0, err
			}
			total += n
		}
		if c.Metrics != nil {
			c.Metrics.CountRecorded("all")
		}
		return total, nil
	}

	if !model.Statuses[model.Status(status)] {
		return 0, c.fail(origin, errs.InvalidEnum, "status is not a recognized value", nil, map[string]interface{}{"status": status})
	}
	n, err := c.countOneStatus(ctx, origin, status, f)
	if err != nil {
		return 0, err
	}
	if c.Metrics != nil {
		c.Metrics.CountRecorded(status)
	}
	return n, nil
}

func (c *Counter) countOneStatus(ctx context.Context, origin, status string, f Filters) (int, error) {
	names := map[string]string{}
	values := map[string]interface{}{}
	clauses := []string{}
	if f.UnmoderatedOnly {
		names["#a"] = "action"
		clauses = append(clauses, "attribute_not_exists(#a)")
	}
	if f.HasRejectionHistory {
		names["#act"] = "action"
		values[":rej"] = string(model.ActionReject)
		clauses = append(clauses, "#act = :rej")
	}
	filterExpr := ""
	for i, cl := range clauses {
		if i == 0 {
			filterExpr = cl
		} else {
			filterExpr += " AND " + cl
		}
	}

	total := 0
	var exclusiveStart driver.Key
	for iter := 0; ; iter++ {
		if iter >= c.Config.MaxPaginationIterations {
			return 0, c.fail(origin, errs.PaginationLimitExceeded, "count exceeded the iteration ceiling", nil, map[string]interface{}{"status": status, "iterations": iter})
		}
		out, err := c.Driver.Query(ctx, driver.QueryInput{
			TableName:                 c.TableName,
			IndexName:                 schema.IndexStatusDate,
			KeyCondition:              driver.KeyCondition{PartitionValue: status},
			FilterExpression:          filterExpr,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         exclusiveStart,
			Select:                    "COUNT",
		})
		if err != nil {
			return 0, c.fail(origin, errs.StorageTransient, "count query failed", err, map[string]interface{}{"status": status})
		}
		total += out.Count
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		exclusiveStart = out.LastEvaluatedKey
	}
	return total, nil
}

// Counts is the result shape of getAllModerationCounts (spec §4.G).
type Counts struct {
	Pending             int
	Approved            int
	ApprovedGlobal      int
	Rejected            int
	Escalated           int
	PendingResubmission int
	All                 int
	Unmoderated         int
}

// GetAllModerationCounts implements spec §4.G getAllModerationCounts: a
// per-status count for every closed status plus the "all" and
// "unmoderated" specials, issuing one count per status in parallel via
// errgroup rather than walking the status list serially. A
// pendingResubmission count failure degrades to 0 rather than failing
// the whole call (spec §4.G); any other per-status failure fails the
// whole call with GetAllModerationCountsFailed.
func (c *Counter) GetAllModerationCounts(ctx context.Context) (Counts, error) {
	const origin = "count.getAllModerationCounts"

	var out Counts
	statusFields := []struct {
		status model.Status
		dest   *int
		soft   bool
	}{
		{model.StatusPending, &out.Pending, false},
		{model.StatusApproved, &out.Approved, false},
		{model.StatusApprovedGlobal, &out.ApprovedGlobal, false},
		{model.StatusRejected, &out.Rejected, false},
		{model.StatusEscalated, &out.Escalated, false},
		{model.StatusPendingResubmission, &out.PendingResubmission, true},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sf := range statusFields {
		sf := sf
		g.Go(func() error {
			n, err := c.countOneStatus(gctx, origin, string(sf.status), Filters{})
			if err != nil {
				if sf.soft {
					*sf.dest = 0
					return nil
				}
				return c.fail(origin, errs.GetAllModerationCountsFailed, "per-status count failed", err, map[string]interface{}{"status": sf.status})
			}
			*sf.dest = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}

	all, err := c.CountModerationItemsByStatus(ctx, string(model.StatusAll), Filters{})
	if err != nil {
		return Counts{}, c.fail(origin, errs.GetAllModerationCountsFailed, "all-status count failed", err, nil)
	}
	out.All = all

	unmoderated, err := c.countOneStatus(ctx, origin, string(model.StatusPending), Filters{UnmoderatedOnly: true})
	if err != nil {
		return Counts{}, c.fail(origin, errs.GetAllModerationCountsFailed, "unmoderated count failed", err, nil)
	}
	out.Unmoderated = unmoderated

	if c.Metrics != nil {
		c.Metrics.CountRecorded("getAllModerationCounts")
	}
	return out, nil
}
