package repository

import (
	"context"
	"time"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// SubscriptionRepository persists recurring access grants.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByID(ctx context.Context, id string) (*model.Subscription, error)
	// GetActiveByUser returns the user's row in status active. Its period may already have ended.
	GetActiveByUser(ctx context.Context, userID int64) (*model.Subscription, error)
	MarkCancelAtPeriodEnd(ctx context.Context, id string, at time.Time) (*model.Subscription, error)
	// CloseEnded moves active subscriptions whose period ended before now to cancelled or expired.
	CloseEnded(ctx context.Context, now time.Time) ([]model.Subscription, error)
}
