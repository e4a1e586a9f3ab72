// Package modutil provides the sanitizers, key derivation, and small
// pure helpers shared by every other component (spec §4.A).
//
// Grounded on the teacher's src/models/time_utils.go and
// temporal_utils.go (timestamp helpers) and on the general shape of
// its tag-namespace sanitization: sanitization is input-only — once a
// value is accepted, the sanitized form is what gets stored.
package modutil

import (
	"strings"
)

// SanitizeString trims v and returns it, or nil if the result is
// empty. Non-string input returns nil.
func SanitizeString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SanitizeTextField trims v and returns it; unlike SanitizeString this
// never returns nil — free-form user text is allowed to be empty.
func SanitizeTextField(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// SanitizeInteger truncates numeric input to an integer, or returns
// nil if v is not numeric (including numeric strings, which are
// rejected per spec §4.A).
func SanitizeInteger(v interface{}) *int64 {
	switch n := v.(type) {
	case int:
		r := int64(n)
		return &r
	case int32:
		r := int64(n)
		return &r
	case int64:
		return &n
	case float32:
		r := int64(n)
		return &r
	case float64:
		r := int64(n)
		return &r
	default:
		return nil
	}
}

// IsPlainObject reports whether v is a map[string]interface{} (the
// shape an untyped JSON deserializer produces for an object), rejecting
// arrays, scalars, and nil.
func IsPlainObject(v interface{}) bool {
	if v == nil {
		return false
	}
	_, ok := v.(map[string]interface{})
	return ok
}

// dangerousKeys are prototype-pollution vectors in untyped maps
// sourced from a deserializer (spec §9 "Prototype pollution").
var dangerousKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// SafeObject returns a shallow copy of m with any dangerous key
// stripped. The original map is never mutated.
func SafeObject(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if dangerousKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}
