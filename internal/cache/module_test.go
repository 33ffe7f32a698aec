package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	if client := NewRedisClient(&config.Config{}); client != nil {
		t.Fatal("expected nil client without address")
	}
	client := NewRedisClient(&config.Config{RedisAddr: "localhost:6379", RedisDB: 2})
	if client == nil || client.Options().DB != 2 {
		t.Fatalf("unexpected client: %+v", client)
	}
	_ = client.Close()
}

func TestModuleFallsBackToNopStore(t *testing.T) {
	var (
		store Store
		svc   *Service
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{CacheTTL: time.Minute}),
		fx.Provide(func() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }),
		Module,
		fx.Populate(&store, &svc),
	)
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer app.Stop(context.Background())

	if _, ok := store.(NopStore); !ok {
		t.Fatalf("expected NopStore, got %T", store)
	}
	if svc == nil || svc.ttl != time.Minute {
		t.Fatalf("unexpected service: %+v", svc)
	}
}
