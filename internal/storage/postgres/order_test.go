package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

var orderCols = []string{
	"id", "user_id", "course_id", "amount", "currency", "status", "payment_method",
	"external_payment_id", "proof_image_url", "admin_note", "metadata", "paid_at", "created_at", "updated_at",
}

func addOrderRow(rows *pgxmockv3.Rows, id string, status model.OrderStatus, note *string, paidAt *time.Time) *pgxmockv3.Rows {
	courseID := int64(7)
	now := time.Now()
	return rows.AddRow(id, int64(1), &courseID, decimal.NewFromInt(50000), "MNT", status, model.DefaultPaymentMethod,
		(*string)(nil), (*string)(nil), note, []byte(`{"source":"web"}`), paidAt, now, now)
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmockv3.AnyArg()
	}
	return args
}

func TestOrderRepositoryCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	courseID := int64(7)
	now := time.Now()
	order := &model.Order{UserID: 1, CourseID: &courseID, Amount: decimal.NewFromInt(50000), Currency: "MNT",
		Status: model.OrderStatusPending, PaymentMethod: model.DefaultPaymentMethod}

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(9)...).WillReturnRows(
		pgxmockv3.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == "" || !order.CreatedAt.Equal(now) {
		t.Fatalf("expected id and timestamps to be assigned: %+v", order)
	}

	fixed := &model.Order{ID: "o-fixed", UserID: 1, Status: model.OrderStatusPending}
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("o-fixed", int64(1), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), "", "pending", "", pgxmockv3.AnyArg(), []byte(`{}`)).
		WillReturnRows(pgxmockv3.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	if err := repo.Create(context.Background(), fixed); err != nil || fixed.ID != "o-fixed" {
		t.Fatalf("unexpected result: %+v err=%v", fixed, err)
	}

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(9)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintOpenOrderPerCourse})
	if err := repo.Create(context.Background(), &model.Order{UserID: 1}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(9)...).WillReturnError(errors.New("insert"))
	if err := repo.Create(context.Background(), &model.Order{UserID: 1}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs("o-1").WillReturnRows(
		addOrderRow(pgxmockv3.NewRows(orderCols), "o-1", model.OrderStatusPending, nil, nil))
	order, err := repo.GetByID(context.Background(), "o-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "o-1" || order.Status != model.OrderStatusPending || *order.CourseID != 7 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if !order.Amount.Equal(decimal.NewFromInt(50000)) || order.Metadata["source"] != "web" {
		t.Fatalf("unexpected amount or metadata: %v %v", order.Amount, order.Metadata)
	}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	now := time.Now()
	mock.ExpectQuery("FROM orders WHERE id=").WithArgs("bad-meta").WillReturnRows(
		pgxmockv3.NewRows(orderCols).AddRow("bad-meta", int64(1), (*int64)(nil), decimal.Zero, "MNT", model.OrderStatusPending,
			"", (*string)(nil), (*string)(nil), (*string)(nil), []byte(`{`), (*time.Time)(nil), now, now))
	if _, err := repo.GetByID(context.Background(), "bad-meta"); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected metadata decode error, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(1), int64(7), []string{"pending", "processing", "paid"}).WillReturnRows(
		addOrderRow(pgxmockv3.NewRows(orderCols), "o-2", model.OrderStatusProcessing, nil, nil))
	if open, err := repo.FindOpenByUserAndCourse(context.Background(), 1, 7); err != nil || open.ID != "o-2" {
		t.Fatalf("unexpected open order: %+v err=%v", open, err)
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(1), int64(8), pgxmockv3.AnyArg()).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.FindOpenByUserAndCourse(context.Background(), 1, 8); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	rows := pgxmockv3.NewRows(orderCols)
	addOrderRow(rows, "o-1", model.OrderStatusPending, nil, nil)
	addOrderRow(rows, "o-2", model.OrderStatusPaid, nil, nil)
	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(1)).WillReturnRows(rows)
	orders, err := repo.ListByUser(context.Background(), 1)
	if err != nil || len(orders) != 2 || orders[1].Status != model.OrderStatusPaid {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(2)).WillReturnError(errors.New("query"))
	if _, err := repo.ListByUser(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}

	now := time.Now()
	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(3)).WillReturnRows(
		pgxmockv3.NewRows(orderCols).AddRow("o-3", "bad", (*int64)(nil), decimal.Zero, "MNT", model.OrderStatusPending,
			"", (*string)(nil), (*string)(nil), (*string)(nil), []byte(`{}`), (*time.Time)(nil), now, now))
	if _, err := repo.ListByUser(context.Background(), 3); err == nil {
		t.Fatal("expected scan error")
	}

	rowErr := pgxmockv3.NewRows(orderCols)
	addOrderRow(rowErr, "o-1", model.OrderStatusPending, nil, nil)
	addOrderRow(rowErr, "o-2", model.OrderStatusPending, nil, nil)
	mock.ExpectQuery("FROM orders WHERE user_id=").WithArgs(int64(4)).WillReturnRows(rowErr.RowError(1, errors.New("row err")))
	if _, err := repo.ListByUser(context.Background(), 4); err == nil || err.Error() != "row err" {
		t.Fatalf("expected row err, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE status=").WithArgs("processing", 50).WillReturnRows(
		addOrderRow(pgxmockv3.NewRows(orderCols), "o-9", model.OrderStatusProcessing, nil, nil))
	queue, err := repo.ListByStatus(context.Background(), model.OrderStatusProcessing, 50)
	if err != nil || len(queue) != 1 || queue[0].ID != "o-9" {
		t.Fatalf("unexpected review queue: %v err=%v", queue, err)
	}

	mock.ExpectQuery("FROM orders WHERE status=").WithArgs("pending", 10).WillReturnRows(pgxmockv3.NewRows(orderCols))
	if empty, err := repo.ListByStatus(context.Background(), model.OrderStatusPending, 10); err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", empty, err)
	}

	mock.ExpectQuery("FROM orders WHERE status=").WithArgs("paid", 10).WillReturnError(errors.New("query"))
	if _, err := repo.ListByStatus(context.Background(), model.OrderStatusPaid, 10); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo := &orderRepository{storage: storage}

	if _, err := repo.ListByUser(context.Background(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestOrderRepositoryTransition(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	note := "ok"
	paidAt := time.Now()
	approve := model.OrderTransition{
		From:      model.TransitionSources(model.OrderStatusPaid),
		To:        model.OrderStatusPaid,
		AdminNote: &note,
		PaidAt:    &paidAt,
	}

	mock.ExpectQuery("UPDATE orders SET status=").
		WithArgs("o-1", "paid", pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), []string{"pending", "processing"}).
		WillReturnRows(addOrderRow(pgxmockv3.NewRows(orderCols), "o-1", model.OrderStatusPaid, &note, &paidAt))
	order, err := repo.Transition(context.Background(), "o-1", approve)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusPaid || order.PaidAt == nil || *order.AdminNote != "ok" {
		t.Fatalf("unexpected order: %+v", order)
	}

	mock.ExpectQuery("UPDATE orders SET status=").WithArgs(anyArgs(6)...).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs("o-1").WillReturnRows(
		pgxmockv3.NewRows([]string{"status"}).AddRow(model.OrderStatusPaid))
	if _, err := repo.Transition(context.Background(), "o-1", approve); !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	mock.ExpectQuery("UPDATE orders SET status=").WithArgs(anyArgs(6)...).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Transition(context.Background(), "missing", approve); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("UPDATE orders SET status=").WithArgs(anyArgs(6)...).WillReturnError(errors.New("update"))
	if _, err := repo.Transition(context.Background(), "o-1", approve); err == nil || errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected raw error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositorySetExternalPaymentID(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectExec("UPDATE orders SET external_payment_id=").WithArgs("o-1", "sess").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.SetExternalPaymentID(context.Background(), "o-1", "sess"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE orders SET external_payment_id=").WithArgs("o-2", "sess").WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.SetExternalPaymentID(context.Background(), "o-2", "sess"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE orders SET external_payment_id=").WithArgs("o-3", "sess").WillReturnError(errors.New("exec"))
	if err := repo.SetExternalPaymentID(context.Background(), "o-3", "sess"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
