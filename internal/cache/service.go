package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// DefaultTTL bounds how long a cached view may live without invalidation.
const DefaultTTL = 900 * time.Second

// invalidateRetryDelay spaces the single retry of a failed invalidation.
const invalidateRetryDelay = 50 * time.Millisecond

// OrderKey returns the cache key of an order view.
func OrderKey(id string) string { return "order:" + id }

// SubscriptionKey returns the cache key of a subscription.
func SubscriptionKey(id string) string { return "subscription:" + id }

// ActiveSubscriptionKey returns the cache key of a user's active subscription.
func ActiveSubscriptionKey(userID int64) string {
	return "subscription:user:" + strconv.FormatInt(userID, 10) + ":active"
}

// Service is a read-through, write-invalidate cache in front of order and subscription reads.
// It is never authoritative: read failures fall back to the loader.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds a cache service. A non-positive ttl selects DefaultTTL.
func NewService(store Store, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl, logger: logger}
}

// Order returns the public view of an order, loading it on a miss.
func (s *Service) Order(ctx context.Context, id string, load func(context.Context) (*model.Order, error)) (*model.OrderView, error) {
	return readThrough(ctx, s, OrderKey(id), func(ctx context.Context) (*model.OrderView, error) {
		order, err := load(ctx)
		if err != nil {
			return nil, err
		}
		view := order.View()
		return &view, nil
	})
}

// Subscription returns a subscription by id, loading it on a miss.
func (s *Service) Subscription(ctx context.Context, id string, load func(context.Context) (*model.Subscription, error)) (*model.Subscription, error) {
	return readThrough(ctx, s, SubscriptionKey(id), load)
}

// ActiveSubscription returns the user's active subscription, loading it on a miss.
func (s *Service) ActiveSubscription(ctx context.Context, userID int64, load func(context.Context) (*model.Subscription, error)) (*model.Subscription, error) {
	return readThrough(ctx, s, ActiveSubscriptionKey(userID), load)
}

// InvalidateOrder drops the cached order view.
func (s *Service) InvalidateOrder(ctx context.Context, id string) error {
	return s.invalidate(ctx, OrderKey(id))
}

// InvalidateSubscription drops both the id keyed and the user keyed entries.
func (s *Service) InvalidateSubscription(ctx context.Context, id string, userID int64) error {
	return s.invalidate(ctx, SubscriptionKey(id), ActiveSubscriptionKey(userID))
}

// invalidate deletes keys, retrying once after a short pause.
func (s *Service) invalidate(ctx context.Context, keys ...string) error {
	err := s.store.Del(ctx, keys...)
	if err == nil {
		return nil
	}
	s.logger.Warn("cache invalidation failed, retrying", slog.Any("keys", keys), slog.String("error", err.Error()))

	timer := time.NewTimer(invalidateRetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
	}
	return s.store.Del(ctx, keys...)
}

func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (*T, error)) (*T, error) {
	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if decodeErr := json.Unmarshal(raw, &cached); decodeErr == nil {
			return &cached, nil
		}
		s.logger.Warn("cache entry undecodable", slog.String("key", key))
	case !errors.Is(err, ErrMiss):
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return value, nil
	}
	if err := s.store.Set(ctx, key, encoded, s.ttl); err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}
