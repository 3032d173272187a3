package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort = "PORT"

	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBidWindow                = "BID_WINDOW"
	EnvSweepInterval            = "SWEEP_INTERVAL"
	EnvConsistencySweepInterval = "CONSISTENCY_SWEEP_INTERVAL"
	EnvBidLockTTL               = "BID_LOCK_TTL"
	EnvDefaultCurrency          = "DEFAULT_CURRENCY"
	EnvStatsCacheTTL            = "STATS_CACHE_TTL"

	EnvBidEventsTopic    = "BID_EVENTS_TOPIC"
	EnvBidEventsDLQTopic = "BID_EVENTS_DLQ_TOPIC"
)
