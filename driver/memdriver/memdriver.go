// Package memdriver is an in-memory reference implementation of
// driver.Driver.
//
// The storage driver itself is an out-of-scope collaborator (spec
// §1) — a real deployment plugs in a wide-column backend. This package
// exists because the engine still needs something to run against in
// tests. It is grounded on several small, composable pieces from the
// teacher's src/storage/binary package rather than its full binary
// file format (which this domain has no use for):
//
//   - locks.go's per-key sync.RWMutex map → keyLockManager here,
//     serializing writers on the same PK+SK while letting writers on
//     different keys proceed in parallel (spec §5).
//   - bloom_filter.go's "cheap existence pre-check before the real
//     lookup" idea is not carried over: the ByModerationId-equivalent
//     index path goes straight to its per-partition structure.
//   - temporal_btree.go's ordered-index-for-range-queries intent →
//     reimplemented as a sorted-slice-per-partition structure, which
//     is all an in-memory reference driver needs (a real B-tree only
//     pays for itself at on-disk scale).
//   - cached_repository.go's decorator-over-a-repository shape →
//     mirrored structurally by driver.BreakerDriver in the parent
//     package, which wraps any Driver with circuit breaking.
package memdriver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/contentguard/modstore/driver"
)

// Driver is the in-memory reference storage driver.
type Driver struct {
	mu     sync.RWMutex
	tables map[string]*table
	locks  keyLockManager
}

// New creates an empty Driver.
func New() *Driver {
	return &Driver{tables: make(map[string]*table)}
}

type table struct {
	spec driver.TableSpec

	mu      sync.RWMutex
	items   map[string]driver.Item
	indexes map[string]*indexData
}

type indexEntry struct {
	sortValue interface{}
	key       string
}

type indexData struct {
	spec       driver.IndexSpec
	partitions map[string][]indexEntry
}

func compositeKey(pk, sk interface{}) string {
	return fmt.Sprintf("%v\x00%v", pk, sk)
}

func partitionString(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

// CreateTable implements driver.Driver. It is idempotent: creating a
// table or index that already exists returns driver.ErrAlreadyExists
// rather than mutating anything (spec §4.D).
func (d *Driver) CreateTable(ctx context.Context, spec driver.TableSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tables[spec.Name]
	if !ok {
		t = &table{
			spec:    spec,
			items:   make(map[string]driver.Item),
			indexes: make(map[string]*indexData),
		}
		for _, idx := range spec.Indexes {
			t.indexes[idx.Name] = &indexData{spec: idx, partitions: make(map[string][]indexEntry)}
		}
		d.tables[spec.Name] = t
		return nil
	}

	// Table already exists: report already-existing indexes but still
	// create any genuinely new ones, matching "idempotent at the
	// semantic level" (spec §4.D) rather than all-or-nothing.
	created := false
	for _, idx := range spec.Indexes {
		if _, exists := t.indexes[idx.Name]; !exists {
			t.indexes[idx.Name] = &indexData{spec: idx, partitions: make(map[string][]indexEntry)}
			created = true
		}
	}
	if !created {
		return driver.ErrAlreadyExists
	}
	return nil
}

func (d *Driver) table(name string) (*table, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[name]
	return t, ok
}

// PutItem implements driver.Driver.
func (d *Driver) PutItem(ctx context.Context, in driver.PutItemInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return fmt.Errorf("memdriver: table %q not found", in.TableName)
	}
	pk, sk := in.Item[t.spec.PartitionKey], in.Item[t.spec.SortKey]
	key := compositeKey(pk, sk)

	unlock := d.locks.lock(in.TableName, key)
	defer unlock()

	t.mu.RLock()
	existing, exists := t.items[key]
	t.mu.RUnlock()

	var existingArg driver.Item
	if exists {
		existingArg = existing
	}
	ok, err := driver.EvalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, existingArg)
	if err != nil {
		return err
	}
	if !ok {
		return driver.ErrConditionalCheckFailed
	}

	t.mu.Lock()
	t.items[key] = in.Item
	t.mu.Unlock()

	t.reindex(key, existingArg, in.Item)
	return nil
}

// GetItem implements driver.Driver. IndexName is ignored: a GetItem
// always resolves against the base table's primary key, matching real
// wide-column stores (only Query supports an IndexName).
func (d *Driver) GetItem(ctx context.Context, in driver.GetItemInput) (driver.Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return nil, false, fmt.Errorf("memdriver: table %q not found", in.TableName)
	}
	key := compositeKey(in.Key[t.spec.PartitionKey], in.Key[t.spec.SortKey])
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, exists := t.items[key]
	if !exists {
		return nil, false, nil
	}
	return cloneItem(item), true, nil
}

// UpdateItem implements driver.Driver. SetAttributes is merged onto
// the existing item (or the bare key, if no item exists yet).
func (d *Driver) UpdateItem(ctx context.Context, in driver.UpdateItemInput) (driver.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return nil, fmt.Errorf("memdriver: table %q not found", in.TableName)
	}
	key := compositeKey(in.Key[t.spec.PartitionKey], in.Key[t.spec.SortKey])

	unlock := d.locks.lock(in.TableName, key)
	defer unlock()

	t.mu.RLock()
	existing, exists := t.items[key]
	t.mu.RUnlock()

	var existingArg driver.Item
	if exists {
		existingArg = existing
	}
	ok, err := driver.EvalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, existingArg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, driver.ErrConditionalCheckFailed
	}

	next := driver.Item{}
	if exists {
		next = cloneItem(existing)
	} else {
		for k, v := range in.Key {
			next[k] = v
		}
	}
	for k, v := range in.SetAttributes {
		next[k] = v
	}

	t.mu.Lock()
	t.items[key] = next
	t.mu.Unlock()

	t.reindex(key, existingArg, next)
	return cloneItem(next), nil
}

// DeleteItem implements driver.Driver.
func (d *Driver) DeleteItem(ctx context.Context, in driver.DeleteItemInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return fmt.Errorf("memdriver: table %q not found", in.TableName)
	}
	key := compositeKey(in.Key[t.spec.PartitionKey], in.Key[t.spec.SortKey])

	unlock := d.locks.lock(in.TableName, key)
	defer unlock()

	t.mu.RLock()
	existing, exists := t.items[key]
	t.mu.RUnlock()

	var existingArg driver.Item
	if exists {
		existingArg = existing
	}
	ok, err := driver.EvalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, existingArg)
	if err != nil {
		return err
	}
	if !ok {
		return driver.ErrConditionalCheckFailed
	}

	t.mu.Lock()
	delete(t.items, key)
	t.mu.Unlock()

	if exists {
		t.reindex(key, existingArg, nil)
	}
	return nil
}

// Query implements driver.Driver.
func (d *Driver) Query(ctx context.Context, in driver.QueryInput) (driver.QueryOutput, error) {
	if err := ctx.Err(); err != nil {
		return driver.QueryOutput{}, err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return driver.QueryOutput{}, fmt.Errorf("memdriver: table %q not found", in.TableName)
	}

	var candidates []string // composite item keys, in index order
	t.mu.RLock()
	if in.IndexName == "" {
		candidates = t.queryPrimaryLocked(in.KeyCondition)
	} else {
		idx, ok := t.indexes[in.IndexName]
		if !ok {
			t.mu.RUnlock()
			return driver.QueryOutput{}, fmt.Errorf("memdriver: index %q not found", in.IndexName)
		}
		candidates = idx.queryLocked(in.KeyCondition)
	}
	if !in.ScanIndexForward {
		reverse(candidates)
	}

	var items []driver.Item
	for _, key := range candidates {
		if item, exists := t.items[key]; exists {
			items = append(items, item)
		}
	}
	t.mu.RUnlock()

	return paginateAndFilter(items, in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, in.Limit, in.ExclusiveStartKey, in.Select, t.spec)
}

// Scan implements driver.Driver.
func (d *Driver) Scan(ctx context.Context, in driver.ScanInput) (driver.QueryOutput, error) {
	if err := ctx.Err(); err != nil {
		return driver.QueryOutput{}, err
	}
	t, ok := d.table(in.TableName)
	if !ok {
		return driver.QueryOutput{}, fmt.Errorf("memdriver: table %q not found", in.TableName)
	}
	t.mu.RLock()
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic order for stable pagination
	var items []driver.Item
	for _, k := range keys {
		items = append(items, t.items[k])
	}
	t.mu.RUnlock()

	return paginateAndFilter(items, in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, in.Limit, in.ExclusiveStartKey, in.Select, t.spec)
}

// Request implements driver.Driver's generic escape hatch. The
// reference driver supports no out-of-band operations; every real
// capability is already a typed method.
func (d *Driver) Request(ctx context.Context, op string, params interface{}) (interface{}, error) {
	return nil, fmt.Errorf("memdriver: unsupported operation %q", op)
}

// MarshalItem/UnmarshalItem round-trip through encoding/json's
// reflection rather than a custom marshaller; the reference driver
// only needs to move Go values into the map[string]interface{} shape,
// not produce a wire format.
func (d *Driver) MarshalItem(v interface{}) (driver.Item, error) {
	return marshalItem(v)
}

func (d *Driver) UnmarshalItem(item driver.Item, out interface{}) error {
	return unmarshalItem(item, out)
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func cloneItem(item driver.Item) driver.Item {
	out := make(driver.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
