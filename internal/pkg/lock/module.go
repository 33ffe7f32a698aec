package lock

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	defaultExpiry = 10 * time.Second
	defaultTries  = 32
)

// Module provides a Locker: redsync when redis is available, in-process otherwise.
var Module = fx.Provide(newLocker)

func newLocker(client *redis.Client, logger *slog.Logger) Locker {
	if client == nil {
		logger.Warn("redis not configured, using in-process locks")
		return NewLocalLocker()
	}
	return NewRedisLocker(client, defaultExpiry, defaultTries)
}
