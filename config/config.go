// Package config provides centralized configuration for the moderation
// persistence engine.
//
// Configuration follows a two-tier hierarchy: environment variables
// override the documented defaults. There is no database-backed tier —
// unlike a long-running server's runtime-tunable settings, the knobs
// here (retry counts, size ceilings, TTLs) are invariants the rest of
// the engine assumes hold for the lifetime of a process.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable named in the moderation engine's external
// interface. All values have sensible defaults and can be overridden
// through environment variables.
type Config struct {
	// TableName is the logical table name backing every index (the
	// module-level TABLE constant). Environment: MODSTORE_TABLE_NAME.
	TableName string

	// MaxNoteLength is the maximum character length of a single note's
	// text field. Environment: MODSTORE_MAX_NOTE_LENGTH. Default: 5000.
	MaxNoteLength int

	// MaxNotesPerItem is the per-item note cap. Adding a note beyond
	// this fails with NotesLimitExceeded.
	// Environment: MODSTORE_MAX_NOTES_PER_ITEM. Default: 50.
	MaxNotesPerItem int

	// MaxHistoryEntries is the per-item meta.history cap; history is
	// truncated oldest-first on overflow.
	// Environment: MODSTORE_MAX_HISTORY_ENTRIES. Default: 100.
	MaxHistoryEntries int

	// MaxReasonLength bounds the `reason` field.
	// Environment: MODSTORE_MAX_REASON_LENGTH. Default: 10000.
	MaxReasonLength int

	// MaxPublicNoteLength bounds the `publicNote` field.
	// Environment: MODSTORE_MAX_PUBLIC_NOTE_LENGTH. Default: 5000.
	MaxPublicNoteLength int

	// MaxQueryResultSize is the hard ceiling on any single query limit;
	// exceeding it fails with QueryLimitExceeded.
	// Environment: MODSTORE_MAX_QUERY_RESULT_SIZE. Default: 1000.
	MaxQueryResultSize int

	// DefaultQueryLimit is applied when a query omits an explicit limit.
	// Environment: MODSTORE_DEFAULT_QUERY_LIMIT. Default: 20.
	DefaultQueryLimit int

	// MaxPaginationIterations bounds count-pagination loops; exceeding
	// it fails with PaginationLimitExceeded.
	// Environment: MODSTORE_MAX_PAGINATION_ITERATIONS. Default: 100.
	MaxPaginationIterations int

	// MaxPaginationTokenSize is the largest accepted pagination token,
	// measured as the length of the encoded token string in bytes. Environment: MODSTORE_MAX_PAGINATION_TOKEN_SIZE.
	// Default: 100 * 1024.
	MaxPaginationTokenSize int

	// PaginationTokenTTL is how long a pagination token remains valid
	// after it was minted. Environment: MODSTORE_PAGINATION_TOKEN_TTL
	// (seconds). Default: 15 minutes.
	PaginationTokenTTL time.Duration

	// CompressionThreshold is the serialized-content size, in bytes,
	// at or above which content is gzip-compressed before storage.
	// Environment: MODSTORE_COMPRESSION_THRESHOLD. Default: 1024.
	CompressionThreshold int

	// RetryMaxAttempts bounds retries of transient storage-driver
	// errors (throttling, provisioned-capacity).
	// Environment: MODSTORE_RETRY_MAX_ATTEMPTS. Default: 3.
	RetryMaxAttempts int

	// OptimisticLockMaxRetries bounds re-read-and-retry attempts after
	// a conditional-write failure, for every mutation except
	// applyModerationAction (which retries at most once regardless).
	// Environment: MODSTORE_OPTIMISTIC_LOCK_MAX_RETRIES. Default: 5.
	OptimisticLockMaxRetries int

	// OptimisticLockBackoff is the linear backoff unit between
	// optimistic-lock retries; attempt N waits N * OptimisticLockBackoff.
	// Environment: MODSTORE_OPTIMISTIC_LOCK_BACKOFF (milliseconds).
	// Default: 50ms.
	OptimisticLockBackoff time.Duration

	// SubmittedAtMaxPast bounds how far in the past submittedAt may be,
	// relative to now. Environment: MODSTORE_SUBMITTED_AT_MAX_PAST
	// (hours). Default: 5 years.
	SubmittedAtMaxPast time.Duration

	// SubmittedAtMaxFuture bounds how far in the future submittedAt may
	// be (clock-skew grace). Environment:
	// MODSTORE_SUBMITTED_AT_MAX_FUTURE (seconds). Default: 5 minutes.
	SubmittedAtMaxFuture time.Duration
}

// Load builds a Config from environment variables, falling back to the
// spec's documented defaults for anything unset.
func Load() *Config {
	return &Config{
		TableName:                getEnv("MODSTORE_TABLE_NAME", "moderation_items"),
		MaxNoteLength:            getEnvInt("MODSTORE_MAX_NOTE_LENGTH", 5000),
		MaxNotesPerItem:          getEnvInt("MODSTORE_MAX_NOTES_PER_ITEM", 50),
		MaxHistoryEntries:        getEnvInt("MODSTORE_MAX_HISTORY_ENTRIES", 100),
		MaxReasonLength:          getEnvInt("MODSTORE_MAX_REASON_LENGTH", 10000),
		MaxPublicNoteLength:      getEnvInt("MODSTORE_MAX_PUBLIC_NOTE_LENGTH", 5000),
		MaxQueryResultSize:       getEnvInt("MODSTORE_MAX_QUERY_RESULT_SIZE", 1000),
		DefaultQueryLimit:        getEnvInt("MODSTORE_DEFAULT_QUERY_LIMIT", 20),
		MaxPaginationIterations:  getEnvInt("MODSTORE_MAX_PAGINATION_ITERATIONS", 100),
		MaxPaginationTokenSize:   getEnvInt("MODSTORE_MAX_PAGINATION_TOKEN_SIZE", 100*1024),
		PaginationTokenTTL:       getEnvDuration("MODSTORE_PAGINATION_TOKEN_TTL", 15*60),
		CompressionThreshold:     getEnvInt("MODSTORE_COMPRESSION_THRESHOLD", 1024),
		RetryMaxAttempts:         getEnvInt("MODSTORE_RETRY_MAX_ATTEMPTS", 3),
		OptimisticLockMaxRetries: getEnvInt("MODSTORE_OPTIMISTIC_LOCK_MAX_RETRIES", 5),
		OptimisticLockBackoff:    getEnvDurationMillis("MODSTORE_OPTIMISTIC_LOCK_BACKOFF", 50),
		SubmittedAtMaxPast:       getEnvDurationHours("MODSTORE_SUBMITTED_AT_MAX_PAST", 5*365*24),
		SubmittedAtMaxFuture:     getEnvDuration("MODSTORE_SUBMITTED_AT_MAX_FUTURE", 5*60),
	}
}

// getEnv retrieves a string environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration reads a second-denominated env var into a Duration.
func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

// getEnvDurationMillis reads a millisecond-denominated env var into a Duration.
func getEnvDurationMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}

// getEnvDurationHours reads an hour-denominated env var into a Duration.
func getEnvDurationHours(key string, defaultHours int) time.Duration {
	return time.Duration(getEnvInt(key, defaultHours)) * time.Hour
}
