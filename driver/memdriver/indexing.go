package memdriver

import (
	"fmt"
	"sort"

	"github.com/contentguard/modstore/driver"
)

// reindex updates every secondary index after a write. old is nil on
// insert, next is nil on delete. Indexes are sparse: an item lacking
// the index's partition-key attribute is simply absent from it, the
// same way a DynamoDB GSI silently excludes items missing its key —
// which is exactly what lets e.g. the ModeratedBy index double as "has
// this item ever been moderated".
func (t *table) reindex(key string, old, next driver.Item) {
	for _, idx := range t.indexes {
		idx.remove(key, old)
		if next != nil {
			idx.insert(key, next)
		}
	}
}

func (idx *indexData) remove(key string, item driver.Item) {
	if item == nil {
		return
	}
	pval, ok := item[idx.spec.PartitionKey]
	if !ok || pval == nil {
		return
	}
	part := partitionString(pval)
	entries := idx.partitions[part]
	for i, e := range entries {
		if e.key == key {
			idx.partitions[part] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(idx.partitions[part]) == 0 {
		delete(idx.partitions, part)
	}
}

func (idx *indexData) insert(key string, item driver.Item) {
	pval, ok := item[idx.spec.PartitionKey]
	if !ok || pval == nil {
		return
	}
	part := partitionString(pval)
	var sval interface{}
	if idx.spec.SortKey != "" {
		sval = item[idx.spec.SortKey]
	}
	entries := idx.partitions[part]
	pos := sort.Search(len(entries), func(i int) bool {
		return compareSortValues(entries[i].sortValue, sval) >= 0
	})
	entries = append(entries, indexEntry{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = indexEntry{sortValue: sval, key: key}
	idx.partitions[part] = entries
}

// queryLocked returns item keys within one partition, ordered ascending
// by sort value, restricted by cond's optional sort-key range.
func (idx *indexData) queryLocked(cond driver.KeyCondition) []string {
	part := partitionString(cond.PartitionValue)
	entries := idx.partitions[part]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !sortMatches(e.sortValue, cond) {
			continue
		}
		out = append(out, e.key)
	}
	return out
}

// queryPrimaryLocked implements Query against the base table (no
// IndexName). Unlike a secondary index, the primary table has no
// separate ordered structure here, so it's filtered directly by
// iterating the item map; the engine's query planner (spec §4.F) never
// actually issues a bare primary-table Query (getModerationRecordById
// goes through the ByModerationId index and then GetItem), but the
// capability is kept for completeness.
func (t *table) queryPrimaryLocked(cond driver.KeyCondition) []string {
	part := fmt.Sprintf("%v", cond.PartitionValue)
	var keys []string
	for key, item := range t.items {
		if fmt.Sprintf("%v", item[t.spec.PartitionKey]) != part {
			continue
		}
		sval := item[t.spec.SortKey]
		if !sortMatches(sval, cond) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareSortValues(t.items[keys[i]][t.spec.SortKey], t.items[keys[j]][t.spec.SortKey]) < 0
	})
	return keys
}

func sortMatches(sval interface{}, cond driver.KeyCondition) bool {
	switch cond.SortOp {
	case "":
		return true
	case "=":
		return compareSortValues(sval, cond.SortValue) == 0
	case ">=":
		return compareSortValues(sval, cond.SortValue) >= 0
	case "<=":
		return compareSortValues(sval, cond.SortValue) <= 0
	case "BETWEEN":
		return compareSortValues(sval, cond.SortValue) >= 0 && compareSortValues(sval, cond.SortValue2) <= 0
	default:
		return false
	}
}

// compareSortValues orders two sort-key values. Numeric values compare
// numerically; everything else (including the "status#submittedAt"
// composite keys, which are always written with a fixed-width epoch
// millisecond suffix) compares as a plain string, which is sufficient
// for a reference driver that never stores keys spanning centuries.
func compareSortValues(a, b interface{}) int {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
