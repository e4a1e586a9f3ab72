package modutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/contentguard/modstore/model"
)

// ErrInvalidTimestamp is returned by DayKeyFromTs when ts cannot be
// sanitized to a real instant.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// DayKeyFromTs derives the compact UTC day key (YYYYMMDD) for an epoch
// millisecond timestamp (spec §3, §4.A). It fails if sanitization
// yields nil or produces a timestamp outside what time.Time can
// represent as a calendar date.
func DayKeyFromTs(v interface{}) (string, error) {
	ts := SanitizeInteger(v)
	if ts == nil {
		return "", ErrInvalidTimestamp
	}
	t := time.UnixMilli(*ts).UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return "", ErrInvalidTimestamp
	}
	return t.Format("20060102"), nil
}

// StatusSubmittedAtKey builds the "status#submittedAt" composite range
// key used across several secondary indexes (spec §3, Glossary). status
// must be a member of the closed model.Statuses set and ts a positive
// integer.
func StatusSubmittedAtKey(status string, ts int64) (string, error) {
	if !model.Statuses[model.Status(status)] {
		return "", fmt.Errorf("statusSubmittedAtKey: status %q is not a recognized value", status)
	}
	if ts <= 0 {
		return "", fmt.Errorf("statusSubmittedAtKey: non-positive timestamp %d", ts)
	}
	return fmt.Sprintf("%s#%d", status, ts), nil
}

// PartitionKey builds the primary table's pk for a user.
func PartitionKey(userID string) string {
	return "moderation#" + userID
}

// SortKey builds the primary table's sk for an item.
func SortKey(submittedAt int64, moderationID string) string {
	return fmt.Sprintf("media#%d#%s", submittedAt, moderationID)
}
