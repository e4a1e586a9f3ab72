package driver

import (
	"fmt"
	"reflect"
	"strings"
)

// EvalCondition evaluates a DynamoDB-style ConditionExpression /
// FilterExpression against item (nil meaning "no such item" for
// conditional writes). It supports exactly the subset the mutation and
// query/count components issue:
//
//	attribute_not_exists(#name)
//	attribute_exists(#name)
//	#name = :value
//	clause AND clause AND ...
//
// This is intentionally not a general expression parser — the engine
// never needs OR, NOT, comparisons other than "=", or nested parens,
// so a full DynamoDB expression grammar would be unused surface.
func EvalCondition(expr string, names map[string]string, values map[string]interface{}, item Item) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}
	clauses := strings.Split(expr, " AND ")
	for _, clause := range clauses {
		ok, err := evalClause(strings.TrimSpace(clause), names, values, item)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalClause(clause string, names map[string]string, values map[string]interface{}, item Item) (bool, error) {
	switch {
	case strings.HasPrefix(clause, "attribute_not_exists("):
		attr, err := resolveAttr(clause, "attribute_not_exists(", names)
		if err != nil {
			return false, err
		}
		_, exists := lookup(item, attr)
		return !exists, nil

	case strings.HasPrefix(clause, "attribute_exists("):
		attr, err := resolveAttr(clause, "attribute_exists(", names)
		if err != nil {
			return false, err
		}
		_, exists := lookup(item, attr)
		return exists, nil

	default:
		if idx := strings.Index(clause, " = "); idx != -1 {
			left := strings.TrimSpace(clause[:idx])
			right := strings.TrimSpace(clause[idx+3:])
			attr := left
			if named, ok := names[left]; ok {
				attr = named
			}
			val, ok := values[right]
			if !ok {
				return false, fmt.Errorf("expr: unbound value placeholder %q", right)
			}
			current, exists := lookup(item, attr)
			if !exists {
				return false, nil
			}
			return valuesEqual(current, val), nil
		}
		return false, fmt.Errorf("expr: unsupported clause %q", clause)
	}
}

func resolveAttr(clause, prefix string, names map[string]string) (string, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(clause, prefix), ")")
	inner = strings.TrimSpace(inner)
	if named, ok := names[inner]; ok {
		return named, nil
	}
	if strings.HasPrefix(inner, "#") {
		return "", fmt.Errorf("expr: unresolved attribute name placeholder %q", inner)
	}
	return inner, nil
}

// lookup resolves a dot-path (e.g. "meta.version") through nested maps
// one segment at a time, to any depth.
func lookup(item Item, path string) (interface{}, bool) {
	if item == nil {
		return nil, false
	}
	parts := strings.SplitN(path, ".", 2)
	v, ok := item[parts[0]]
	if !ok {
		return nil, false
	}
	if len(parts) == 1 {
		return v, true
	}
	nested, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return lookup(Item(nested), parts[1])
}

func valuesEqual(a, b interface{}) bool {
	an, aIsNum := toFloat(a)
	bn, bIsNum := toFloat(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
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
