// Package driver defines the storage driver collaborator the
// moderation engine is built against.
//
// The driver is explicitly out of scope (spec §1): "the low-level
// storage driver... is assumed to provide create-table, put, get,
// update, delete, query, and scan with marshalled attribute values,
// conditional expressions, and index selection." This package states
// that contract as a Go interface, in the wide-column/DynamoDB shape
// spec §6 names (ConditionExpression, ExpressionAttributeNames/Values,
// IndexName, Limit, ExclusiveStartKey, LastEvaluatedKey, Select,
// ScanIndexForward), so the rest of the engine can be written and
// tested against it without depending on any particular backend.
package driver

import "context"

// Item is a marshalled row: attribute name to native Go value. Numbers
// are int64 or float64, binary is []byte, everything else is string,
// bool, []interface{}, or nested map[string]interface{} — mirroring
// DynamoDB's attribute-value type universe without the wire-format
// wrapper tags.
type Item map[string]interface{}

// Key identifies a single item by its primary (or index) key
// attributes, e.g. {"pk": "...", "sk": "..."}.
type Key map[string]interface{}

// Projection is an index's projection type.
type Projection string

const (
	ProjectionInclude  Projection = "INCLUDE"
	ProjectionKeysOnly Projection = "KEYS_ONLY"
	ProjectionAll      Projection = "ALL"
)

// IndexSpec describes one secondary index's key schema.
type IndexSpec struct {
	Name           string
	PartitionKey   string
	SortKey        string // empty if the index has no sort key
	Projection     Projection
	ProjectedAttrs []string // attribute names, when Projection == INCLUDE
}

// TableSpec describes the primary table and its secondary indexes, as
// created by createModerationSchema (spec §4.D).
type TableSpec struct {
	Name         string
	PartitionKey string
	SortKey      string
	Indexes      []IndexSpec
}

// ErrAlreadyExists is returned by CreateTable when the table or an
// index with the same name is already present. The schema manager
// treats this as success (spec §4.D idempotence).
var ErrAlreadyExists = tableExistsError{}

type tableExistsError struct{}

func (tableExistsError) Error() string { return "already exists" }

// ErrConditionalCheckFailed is returned by PutItem/UpdateItem/DeleteItem
// when the supplied ConditionExpression evaluates false against the
// current item.
var ErrConditionalCheckFailed = conditionalCheckError{}

type conditionalCheckError struct{}

func (conditionalCheckError) Error() string { return "conditional check failed" }

// ErrTransient marks a retryable driver error (throttling,
// provisioned-capacity exhaustion). Real drivers should wrap their
// throttling error in this sentinel via errors.Join or a custom type
// satisfying errors.Is(err, ErrTransient).
var ErrTransient = transientError{}

type transientError struct{}

func (transientError) Error() string { return "transient storage error" }

// PutItemInput is the input to PutItem.
type PutItemInput struct {
	TableName                 string
	Item                      Item
	ConditionExpression       string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]interface{}
}

// GetItemInput is the input to GetItem.
type GetItemInput struct {
	TableName      string
	IndexName      string
	Key            Key
	ConsistentRead bool
}

// UpdateItemInput is the input to UpdateItem. SetAttributes holds the
// attributes to write (a full replacement of those names, matching how
// the engine always computes the complete new value of any field it
// touches rather than issuing partial arithmetic updates).
type UpdateItemInput struct {
	TableName                 string
	Key                       Key
	SetAttributes             map[string]interface{}
	ConditionExpression       string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]interface{}
}

// DeleteItemInput is the input to DeleteItem.
type DeleteItemInput struct {
	TableName                 string
	Key                       Key
	ConditionExpression       string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]interface{}
}

// KeyCondition restricts a Query to one partition (and optionally a
// sort-key range within it).
type KeyCondition struct {
	PartitionValue interface{}

	// SortOp is one of "", "=", ">=", "<=", "BETWEEN". Empty means no
	// sort-key restriction (the whole partition).
	SortOp     string
	SortValue  interface{}
	SortValue2 interface{} // only used when SortOp == "BETWEEN"
}

// QueryInput is the input to Query.
type QueryInput struct {
	TableName                 string
	IndexName                 string
	KeyCondition               KeyCondition
	FilterExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]interface{}
	Limit                     int
	ExclusiveStartKey         Key
	ScanIndexForward          bool
	Select                    string // "", "ALL_ATTRIBUTES", or "COUNT"
}

// ScanInput is the input to Scan.
type ScanInput struct {
	TableName                 string
	FilterExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]interface{}
	Limit                     int
	ExclusiveStartKey         Key
	Select                    string
}

// QueryOutput is the common result shape for Query and Scan.
type QueryOutput struct {
	Items            []Item
	Count            int
	LastEvaluatedKey Key
}

// Driver is the storage driver contract. Every method takes a context
// so callers can cancel at any suspension point (spec §5).
type Driver interface {
	CreateTable(ctx context.Context, spec TableSpec) error
	PutItem(ctx context.Context, in PutItemInput) error
	GetItem(ctx context.Context, in GetItemInput) (Item, bool, error)
	UpdateItem(ctx context.Context, in UpdateItemInput) (Item, error)
	DeleteItem(ctx context.Context, in DeleteItemInput) error
	Query(ctx context.Context, in QueryInput) (QueryOutput, error)
	Scan(ctx context.Context, in ScanInput) (QueryOutput, error)

	// Request is a generic escape hatch for driver-specific operations
	// the typed methods above don't cover (spec §6).
	Request(ctx context.Context, op string, params interface{}) (interface{}, error)

	// MarshalItem/UnmarshalItem convert between a Go struct and the
	// driver's native Item representation.
	MarshalItem(v interface{}) (Item, error)
	UnmarshalItem(item Item, out interface{}) error
}
