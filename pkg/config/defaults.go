package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gemnet"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort = "9000"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = time.Minute

	DefaultRequestTimeout = 15 * time.Second
	DefaultIdempotencyTTL = 5 * time.Minute
	DefaultMaxRequestSize = 1 << 20 // 1MB

	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Countdown window measured from the first accepted bid. Fixed per
	// auction; later bids never extend it.
	DefaultBidWindow = 4 * 24 * time.Hour

	DefaultSweepInterval            = 30 * time.Second
	DefaultConsistencySweepInterval = 2 * time.Minute

	// Advisory lock lifetime. Long enough for one accept/resolve cycle,
	// short enough that a crashed holder does not freeze the listing.
	DefaultBidLockTTL = 10 * time.Second

	DefaultCurrency = "LKR"

	DefaultStatsCacheTTL = 15 * time.Second

	DefaultBidEventsTopic    = "bid-events"
	DefaultBidEventsDLQTopic = "bid-events-dlq"

	DefaultPaginationLimit = 100
)
