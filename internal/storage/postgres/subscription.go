package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const subscriptionColumns = `id, user_id, plan_type, status, current_period_start, current_period_end,
    cancel_at_period_end, cancelled_at, created_at, updated_at`

type subscriptionRepository struct {
	storage *Storage
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.CancelAtPeriodEnd, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	const query = `INSERT INTO subscriptions (id, user_id, plan_type, status, current_period_start, current_period_end)
                   VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query, sub.ID, sub.UserID, string(sub.PlanType), string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	s, err := scanSubscription(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *subscriptionRepository) GetActiveByUser(ctx context.Context, userID int64) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
              WHERE user_id=$1 AND status='active' ORDER BY created_at DESC LIMIT 1`
	s, err := scanSubscription(r.storage.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *subscriptionRepository) MarkCancelAtPeriodEnd(ctx context.Context, id string, at time.Time) (*model.Subscription, error) {
	query := `UPDATE subscriptions
              SET cancel_at_period_end=TRUE, cancelled_at=COALESCE(cancelled_at, $2), updated_at=NOW()
              WHERE id=$1 AND status='active'
              RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.storage.pool.QueryRow(ctx, query, id, at))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var current model.SubscriptionStatus
	if err := r.storage.pool.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id=$1`, id).Scan(&current); err != nil {
		return nil, notFound(err)
	}
	return nil, fmt.Errorf("%w: subscription %s is %s", domainErrors.ErrInvalidState, id, current)
}

func (r *subscriptionRepository) CloseEnded(ctx context.Context, now time.Time) ([]model.Subscription, error) {
	query := `UPDATE subscriptions
              SET status = CASE WHEN cancel_at_period_end THEN 'cancelled' ELSE 'expired' END, updated_at=NOW()
              WHERE status='active' AND current_period_end <= $1
              RETURNING ` + subscriptionColumns
	rows, err := r.storage.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
