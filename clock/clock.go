// Package clock defines the wall-clock collaborator the engine reads
// the current instant through. Consumers never call time.Now directly
// so that mutation and validation logic stays deterministic under test.
package clock

import "time"

// Clock returns the current instant as epoch milliseconds, matching
// the epoch-ms convention used throughout the moderation data model
// (submittedAt, actionedAt, escalatedAt, deletedAt, ...).
type Clock interface {
	NowMillis() int64
}

// System is the production Clock, backed by time.Now.
type System struct{}

// NowMillis implements Clock.
func (System) NowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Fixed is a Clock that always returns the same instant. Useful for
// deterministic tests of timestamp-derived fields (dayKey,
// statusSubmittedAt, the ±5y/+5m submittedAt window).
type Fixed int64

// NowMillis implements Clock.
func (f Fixed) NowMillis() int64 { return int64(f) }
