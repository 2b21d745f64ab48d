package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvGatewaySignatureSecret = "GATEWAY_SIGNATURE_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotLockTTL        = "SLOT_LOCK_TTL"
	EnvSweepInterval      = "SWEEP_INTERVAL"
	EnvCompletionGrace    = "COMPLETION_GRACE"
	EnvDefaultOpenTime    = "DEFAULT_OPEN_TIME"
	EnvDefaultCloseTime   = "DEFAULT_CLOSE_TIME"
	EnvMaxConflictScan    = "MAX_CONFLICT_SCAN"
	EnvCalendarMaxDays    = "CALENDAR_MAX_DAYS"

	EnvVenuesBaseURL = "VENUES_BASE_URL"
	EnvSlotsBaseURL  = "SLOTS_BASE_URL"
	EnvEventsBaseURL = "EVENTS_BASE_URL"
)
