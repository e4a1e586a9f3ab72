package memdriver

import (
	"github.com/contentguard/modstore/driver"
)

// paginateAndFilter applies ExclusiveStartKey, then FilterExpression,
// then Limit, to an already key-ordered item slice. Real wide-column
// stores cap Limit on items *scanned* before filtering, so a filtered
// query can legitimately return fewer than Limit items alongside a
// LastEvaluatedKey; this reference driver instead caps Limit on items
// *matched*, trading that one subtlety away for simplicity. Callers
// must not rely on it either way — pagination tokens are opaque.
func paginateAndFilter(items []driver.Item, filterExpr string, names map[string]string, values map[string]interface{}, limit int, exclusiveStart driver.Key, selectMode string, spec driver.TableSpec) (driver.QueryOutput, error) {
	start := 0
	if len(exclusiveStart) > 0 {
		target := keyString(exclusiveStart, spec)
		for i, item := range items {
			if keyOfItem(item, spec) == target {
				start = i + 1
				break
			}
		}
	}

	var out driver.QueryOutput
	count := 0
	i := start
	for ; i < len(items); i++ {
		ok, err := driver.EvalCondition(filterExpr, names, values, items[i])
		if err != nil {
			return driver.QueryOutput{}, err
		}
		if !ok {
			continue
		}
		if selectMode != "COUNT" {
			out.Items = append(out.Items, cloneItem(items[i]))
		}
		count++
		if limit > 0 && count >= limit {
			i++
			break
		}
	}
	out.Count = count

	if i < len(items) {
		last := items[i-1]
		out.LastEvaluatedKey = driver.Key{
			spec.PartitionKey: last[spec.PartitionKey],
			spec.SortKey:      last[spec.SortKey],
		}
	}
	return out, nil
}

func keyOfItem(item driver.Item, spec driver.TableSpec) string {
	return compositeKey(item[spec.PartitionKey], item[spec.SortKey])
}

func keyString(key driver.Key, spec driver.TableSpec) string {
	return compositeKey(key[spec.PartitionKey], key[spec.SortKey])
}
