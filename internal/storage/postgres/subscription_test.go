package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

var subscriptionCols = []string{
	"id", "user_id", "plan_type", "status", "current_period_start", "current_period_end",
	"cancel_at_period_end", "cancelled_at", "created_at", "updated_at",
}

func addSubscriptionRow(rows *pgxmockv3.Rows, id string, status model.SubscriptionStatus, cancelAtEnd bool) *pgxmockv3.Rows {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var cancelledAt *time.Time
	if cancelAtEnd {
		at := start.AddDate(0, 0, 10)
		cancelledAt = &at
	}
	return rows.AddRow(id, int64(1), model.PlanMonthly, status, start, start.AddDate(0, 1, 0), cancelAtEnd, cancelledAt, start, start)
}

func TestSubscriptionRepositoryCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &subscriptionRepository{storage: storage}

	now := time.Now()
	sub := &model.Subscription{UserID: 1, PlanType: model.PlanYearly, Status: model.SubscriptionActive,
		CurrentPeriodStart: now, CurrentPeriodEnd: model.PlanYearly.PeriodEnd(now)}
	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(pgxmockv3.AnyArg(), int64(1), "yearly", "active", sub.CurrentPeriodStart, sub.CurrentPeriodEnd).
		WillReturnRows(pgxmockv3.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	if err := repo.Create(context.Background(), sub); err != nil || sub.ID == "" {
		t.Fatalf("unexpected result: %+v err=%v", sub, err)
	}

	mock.ExpectQuery("INSERT INTO subscriptions").WithArgs(anyArgs(6)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintActiveSubscription})
	if err := repo.Create(context.Background(), &model.Subscription{UserID: 1}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO subscriptions").WithArgs(anyArgs(6)...).WillReturnError(errors.New("insert"))
	if err := repo.Create(context.Background(), &model.Subscription{UserID: 1}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSubscriptionRepositoryReads(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &subscriptionRepository{storage: storage}

	mock.ExpectQuery("FROM subscriptions WHERE id=").WithArgs("s-1").WillReturnRows(
		addSubscriptionRow(pgxmockv3.NewRows(subscriptionCols), "s-1", model.SubscriptionActive, false))
	sub, err := repo.GetByID(context.Background(), "s-1")
	if err != nil || sub.ID != "s-1" || sub.PlanType != model.PlanMonthly {
		t.Fatalf("unexpected subscription: %+v err=%v", sub, err)
	}

	mock.ExpectQuery("FROM subscriptions WHERE id=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM subscriptions WHERE user_id=").WithArgs(int64(1)).WillReturnRows(
		addSubscriptionRow(pgxmockv3.NewRows(subscriptionCols), "s-1", model.SubscriptionActive, false))
	if sub, err := repo.GetActiveByUser(context.Background(), 1); err != nil || sub.ID != "s-1" {
		t.Fatalf("unexpected subscription: %+v err=%v", sub, err)
	}

	mock.ExpectQuery("FROM subscriptions WHERE user_id=").WithArgs(int64(2)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetActiveByUser(context.Background(), 2); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSubscriptionRepositoryMarkCancelAtPeriodEnd(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &subscriptionRepository{storage: storage}

	at := time.Now()
	mock.ExpectQuery("UPDATE subscriptions SET cancel_at_period_end=TRUE").WithArgs("s-1", at).WillReturnRows(
		addSubscriptionRow(pgxmockv3.NewRows(subscriptionCols), "s-1", model.SubscriptionActive, true))
	sub, err := repo.MarkCancelAtPeriodEnd(context.Background(), "s-1", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.CancelAtPeriodEnd || sub.CancelledAt == nil || sub.Status != model.SubscriptionActive {
		t.Fatalf("cancellation must keep status active until period end: %+v", sub)
	}

	mock.ExpectQuery("UPDATE subscriptions SET cancel_at_period_end=TRUE").WithArgs("s-2", at).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM subscriptions WHERE id=").WithArgs("s-2").WillReturnRows(
		pgxmockv3.NewRows([]string{"status"}).AddRow(model.SubscriptionExpired))
	if _, err := repo.MarkCancelAtPeriodEnd(context.Background(), "s-2", at); !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	mock.ExpectQuery("UPDATE subscriptions SET cancel_at_period_end=TRUE").WithArgs("s-3", at).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM subscriptions WHERE id=").WithArgs("s-3").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.MarkCancelAtPeriodEnd(context.Background(), "s-3", at); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("UPDATE subscriptions SET cancel_at_period_end=TRUE").WithArgs("s-4", at).WillReturnError(errors.New("update"))
	if _, err := repo.MarkCancelAtPeriodEnd(context.Background(), "s-4", at); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSubscriptionRepositoryCloseEnded(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &subscriptionRepository{storage: storage}

	now := time.Now()
	rows := pgxmockv3.NewRows(subscriptionCols)
	addSubscriptionRow(rows, "s-1", model.SubscriptionCancelled, true)
	addSubscriptionRow(rows, "s-2", model.SubscriptionExpired, false)
	mock.ExpectQuery("UPDATE subscriptions SET status = CASE").WithArgs(now).WillReturnRows(rows)
	closed, err := repo.CloseEnded(context.Background(), now)
	if err != nil || len(closed) != 2 {
		t.Fatalf("unexpected result: %v err=%v", closed, err)
	}
	if closed[0].Status != model.SubscriptionCancelled || closed[1].Status != model.SubscriptionExpired {
		t.Fatalf("unexpected statuses: %v %v", closed[0].Status, closed[1].Status)
	}

	mock.ExpectQuery("UPDATE subscriptions SET status = CASE").WithArgs(now).WillReturnError(errors.New("update"))
	if _, err := repo.CloseEnded(context.Background(), now); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("UPDATE subscriptions SET status = CASE").WithArgs(now).WillReturnRows(
		pgxmockv3.NewRows(subscriptionCols).AddRow("s-1", "bad", model.PlanMonthly, model.SubscriptionExpired, now, now, false, (*time.Time)(nil), now, now))
	if _, err := repo.CloseEnded(context.Background(), now); err == nil {
		t.Fatal("expected scan error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}

	rowsErr := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	if _, err := (&subscriptionRepository{storage: rowsErr}).CloseEnded(context.Background(), now); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}
