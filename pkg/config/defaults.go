package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "stagedoor"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultSlotLockTTL bounds how long a crashed approval can hold a venue
	// day window.
	DefaultSlotLockTTL = 10 * time.Second

	// DefaultSweepInterval is how often the events service advances
	// scheduled events to live and live events to completed.
	DefaultSweepInterval = 1 * time.Minute

	// DefaultCompletionGrace keeps an event live past its published end
	// before the sweep marks it completed.
	DefaultCompletionGrace = 30 * time.Minute

	DefaultDefaultOpenTime  = "08:00"
	DefaultDefaultCloseTime = "23:00"

	// DefaultMaxConflictScan caps how many committed records the conflict
	// detector loads around a candidate date.
	DefaultMaxConflictScan = 200

	// DefaultCalendarMaxDays caps a single calendar query's date span.
	DefaultCalendarMaxDays = 62

	DefaultPaginationLimit = 100

	DefaultVenuesBaseURL = "http://localhost:8081"
	DefaultSlotsBaseURL  = "http://localhost:8082"
	DefaultEventsBaseURL = "http://localhost:8083"
)

// NormalizePaginationLimit clamps a caller-supplied page size.
func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
