package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkiloo/coursemart/internal/cache"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
)

// SubscriptionUseCase manages recurring access grants.
type SubscriptionUseCase struct {
	subs   repository.SubscriptionRepository
	cache  *cache.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewSubscriptionUseCase constructs SubscriptionUseCase.
func NewSubscriptionUseCase(subs repository.SubscriptionRepository, c *cache.Service, logger *slog.Logger) *SubscriptionUseCase {
	return &SubscriptionUseCase{subs: subs, cache: c, logger: logger, now: time.Now}
}

// Subscribe starts a new billing period for the user.
func (u *SubscriptionUseCase) Subscribe(ctx context.Context, userID int64, plan model.PlanType) (*model.Subscription, error) {
	if !plan.Valid() {
		return nil, domainErrors.ErrInvalidArgument
	}
	start := u.now().UTC()
	existing, err := u.subs.GetActiveByUser(ctx, userID)
	switch {
	case err == nil && existing.IsActive(start):
		return nil, domainErrors.ErrAlreadyExists
	case err == nil:
		// The previous period is over but not swept yet; close it so the new row can take its place.
		if _, err := u.SweepEnded(ctx); err != nil {
			return nil, err
		}
	case !errors.Is(err, domainErrors.ErrNotFound):
		return nil, err
	}

	sub := &model.Subscription{
		UserID:             userID,
		PlanType:           plan,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   plan.PeriodEnd(start),
	}
	if err := u.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	u.invalidate(ctx, sub)
	return sub, nil
}

// GetMySubscription returns the caller's active subscription or nil when there is none.
// A subscription whose period has ended counts as none even before the sweep closes it.
func (u *SubscriptionUseCase) GetMySubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	sub, err := u.cache.ActiveSubscription(ctx, userID, func(ctx context.Context) (*model.Subscription, error) {
		sub, err := u.subs.GetActiveByUser(ctx, userID)
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !sub.IsActive(u.now()) {
			return nil, nil
		}
		return sub, nil
	})
	if err != nil || sub == nil {
		return sub, err
	}
	if !sub.IsActive(u.now()) {
		return nil, nil
	}
	return sub, nil
}

// GetSubscription returns a subscription visible to the caller.
func (u *SubscriptionUseCase) GetSubscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	sub, err := u.cache.Subscription(ctx, id, func(ctx context.Context) (*model.Subscription, error) {
		return u.subs.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if sub.UserID != callerID && role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}
	return sub, nil
}

// Cancel stops renewal at the end of the current period.
func (u *SubscriptionUseCase) Cancel(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	sub, err := u.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != callerID && role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}

	updated, err := u.subs.MarkCancelAtPeriodEnd(ctx, id, u.now().UTC())
	if err != nil {
		return nil, err
	}
	u.invalidate(ctx, updated)
	return updated, nil
}

// SweepEnded closes subscriptions whose period is over and returns how many were closed.
func (u *SubscriptionUseCase) SweepEnded(ctx context.Context) (int, error) {
	closed, err := u.subs.CloseEnded(ctx, u.now().UTC())
	if err != nil {
		return 0, err
	}
	for i := range closed {
		u.invalidate(ctx, &closed[i])
	}
	if len(closed) > 0 {
		u.logger.Info("subscriptions closed", slog.Int("count", len(closed)))
	}
	return len(closed), nil
}

func (u *SubscriptionUseCase) invalidate(ctx context.Context, sub *model.Subscription) {
	if err := u.cache.InvalidateSubscription(ctx, sub.ID, sub.UserID); err != nil {
		u.logger.Warn("subscription cache not invalidated", slog.String("subscription_id", sub.ID), slog.Any("error", err))
	}
}
