package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress   string
	DatabaseURI  string
	DBMaxConns   int
	AuthSecret   string
	AuthTokenTTL time.Duration
	PasswordCost int
	LogLevel     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AWSRegion      string
	AWSEndpointURL string

	SettlementQueueURL     string
	SettlementDLQURL       string
	QueueVisibilityTimeout time.Duration
	QueueWaitTime          time.Duration
	QueueMaxAttempts       int

	OrderPollInterval time.Duration
	WorkerPoolSize    int
	MaxJobsBatch      int
	ShutdownTimeout   time.Duration

	StorageBucket    string
	StoragePublicURL string
	LedgerTable      string
	MetricsNamespace string

	SubscriptionSweepSpec string
}

const (
	defaultRunAddress             = ":8080"
	defaultAuthSecret             = "change-me-in-production"
	defaultAuthTokenTTL           = 24 * time.Hour
	defaultLogLevel               = "info"
	defaultCacheTTL               = 900 * time.Second
	defaultAWSRegion              = "us-east-1"
	defaultQueueVisibilityTimeout = 60 * time.Second
	defaultQueueWaitTime          = 10 * time.Second
	defaultQueueMaxAttempts       = 5
	defaultOrderPollInterval      = time.Second
	defaultWorkerPoolSize         = 4
	defaultShutdownTimeout        = 10 * time.Second
	defaultMaxJobsBatch           = 10
	defaultSubscriptionSweepSpec  = "0 */15 * * * *"

	// SQS limits a single receive to 10 messages and long polling to 20 seconds.
	maxJobsBatch     = 10
	maxQueueWaitTime = 20 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:             getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:            getString(lookup, "DATABASE_URI", ""),
		AuthSecret:             getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		AuthTokenTTL:           getDuration(lookup, "AUTH_TOKEN_TTL", defaultAuthTokenTTL),
		PasswordCost:           getInt(lookup, "PASSWORD_COST", 0),
		DBMaxConns:             getInt(lookup, "DB_MAX_CONNS", 0),
		LogLevel:               getString(lookup, "LOG_LEVEL", defaultLogLevel),
		RedisAddr:              getString(lookup, "REDIS_ADDR", ""),
		RedisPassword:          getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:                getInt(lookup, "REDIS_DB", 0),
		CacheTTL:               getDuration(lookup, "CACHE_TTL", defaultCacheTTL),
		AWSRegion:              getString(lookup, "AWS_REGION", defaultAWSRegion),
		AWSEndpointURL:         getString(lookup, "AWS_ENDPOINT_URL", ""),
		SettlementQueueURL:     getString(lookup, "SETTLEMENT_QUEUE_URL", ""),
		SettlementDLQURL:       getString(lookup, "SETTLEMENT_DLQ_URL", ""),
		QueueVisibilityTimeout: getDuration(lookup, "QUEUE_VISIBILITY_TIMEOUT", defaultQueueVisibilityTimeout),
		QueueWaitTime:          getDuration(lookup, "QUEUE_WAIT_TIME", defaultQueueWaitTime),
		QueueMaxAttempts:       getInt(lookup, "QUEUE_MAX_ATTEMPTS", defaultQueueMaxAttempts),
		OrderPollInterval:      getDuration(lookup, "ORDER_POLL_INTERVAL", defaultOrderPollInterval),
		WorkerPoolSize:         getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxJobsBatch:           getInt(lookup, "POLL_BATCH_SIZE", defaultMaxJobsBatch),
		ShutdownTimeout:        getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		StorageBucket:          getString(lookup, "STORAGE_BUCKET", ""),
		StoragePublicURL:       getString(lookup, "STORAGE_PUBLIC_URL", ""),
		LedgerTable:            getString(lookup, "LEDGER_TABLE", ""),
		MetricsNamespace:       getString(lookup, "METRICS_NAMESPACE", ""),
		SubscriptionSweepSpec:  getString(lookup, "SUBSCRIPTION_SWEEP_SPEC", defaultSubscriptionSweepSpec),
	}

	fs := flag.NewFlagSet("coursemart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.OrderPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		visibilityStr      = cfg.QueueVisibilityTimeout.String()
		cacheTTLStr        = cfg.CacheTTL.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for cache and locks")
	fs.StringVar(&cfg.SettlementQueueURL, "queue", cfg.SettlementQueueURL, "Settlement SQS queue URL")
	fs.StringVar(&cfg.SettlementDLQURL, "dlq", cfg.SettlementDLQURL, "Settlement dead-letter queue URL")
	fs.StringVar(&cfg.StorageBucket, "bucket", cfg.StorageBucket, "Object storage bucket")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent settlement workers")
	fs.IntVar(&cfg.MaxJobsBatch, "poll-batch", cfg.MaxJobsBatch, "Maximum jobs per receive")
	fs.IntVar(&cfg.QueueMaxAttempts, "max-attempts", cfg.QueueMaxAttempts, "Deliveries before a job is dead-lettered")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Pause between empty queue polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&visibilityStr, "visibility-timeout", visibilityStr, "Queue visibility timeout")
	fs.StringVar(&cacheTTLStr, "cache-ttl", cacheTTLStr, "Cache entry time to live")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.OrderPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.QueueVisibilityTimeout, err = time.ParseDuration(visibilityStr); err != nil {
		return nil, fmt.Errorf("invalid visibility timeout: %w", err)
	}

	if cfg.CacheTTL, err = time.ParseDuration(cacheTTLStr); err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = string(content)
	}

	cfg.normalize()

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.SettlementQueueURL == "" {
		return nil, fmt.Errorf("settlement queue URL must be provided")
	}

	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.MaxJobsBatch <= 0 {
		cfg.MaxJobsBatch = defaultMaxJobsBatch
	}
	if cfg.MaxJobsBatch > maxJobsBatch {
		cfg.MaxJobsBatch = maxJobsBatch
	}
	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = defaultOrderPollInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.QueueVisibilityTimeout <= 0 {
		cfg.QueueVisibilityTimeout = defaultQueueVisibilityTimeout
	}
	if cfg.QueueWaitTime < 0 {
		cfg.QueueWaitTime = 0
	}
	if cfg.QueueWaitTime > maxQueueWaitTime {
		cfg.QueueWaitTime = maxQueueWaitTime
	}
	if cfg.QueueMaxAttempts <= 0 {
		cfg.QueueMaxAttempts = defaultQueueMaxAttempts
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.AuthTokenTTL <= 0 {
		cfg.AuthTokenTTL = defaultAuthTokenTTL
	}
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
