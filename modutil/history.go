package modutil

import "github.com/contentguard/modstore/model"

// AppendHistory appends entry to history and truncates to maxEntries,
// dropping the oldest entries first on overflow (spec §3 invariant 7,
// §6 MAX_HISTORY_ENTRIES).
//
// Grounded loosely on the teacher's bounded-retention intent in
// src/models/retention_policy.go; that file's policy-engine machinery
// (named policies, selectors, scheduled rule evaluation) solves a
// different problem — automatic, date-driven entity lifecycle — and
// was not carried over. What is kept is the FIFO-truncate-on-overflow
// shape applied here to a fixed-size audit log instead.
func AppendHistory(history []model.HistoryEntry, entry model.HistoryEntry, maxEntries int) []model.HistoryEntry {
	history = append(history, entry)
	if len(history) > maxEntries {
		overflow := len(history) - maxEntries
		history = history[overflow:]
	}
	return history
}
