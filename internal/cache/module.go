package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
)

// Module wires the redis client and the cache-aside service.
var Module = fx.Options(
	fx.Provide(NewRedisClient),
	fx.Provide(newStore),
	fx.Provide(newService),
	fx.Invoke(registerLifecycle),
)

// NewRedisClient returns nil when no redis address is configured.
func NewRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func newStore(client *redis.Client, logger *slog.Logger) Store {
	if client == nil {
		logger.Warn("redis not configured, cache disabled")
		return NopStore{}
	}
	return NewRedisStore(client)
}

type serviceParams struct {
	fx.In

	Store  Store
	Config *config.Config
	Logger *slog.Logger
}

func newService(p serviceParams) *Service {
	return NewService(p.Store, p.Config.CacheTTL, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
