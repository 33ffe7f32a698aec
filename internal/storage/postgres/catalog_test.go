package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

func TestCourseRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &courseRepository{storage: storage}
	cols := []string{"id", "instructor_id", "title", "published", "price", "discount_price", "currency"}

	discount := decimal.NewFromInt(40000)
	mock.ExpectQuery("FROM courses WHERE id=").WithArgs(int64(7)).WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow(int64(7), int64(3), "Go basics", true, decimal.NewFromInt(50000), &discount, "MNT"))
	course, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !course.EffectivePrice().Equal(discount) || course.InstructorID != 3 {
		t.Fatalf("unexpected course: %+v", course)
	}

	mock.ExpectQuery("FROM courses WHERE id=").WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), 8); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestEnrollmentRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &enrollmentRepository{storage: storage}

	mock.ExpectExec("INSERT INTO enrollments").WithArgs(int64(1), int64(7)).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Grant(context.Background(), 1, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("INSERT INTO enrollments").WithArgs(int64(1), int64(7)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintEnrollmentUserCourse})
	if err := repo.Grant(context.Background(), 1, 7); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectExec("INSERT INTO enrollments").WithArgs(int64(1), int64(7)).WillReturnError(errors.New("insert"))
	if err := repo.Grant(context.Background(), 1, 7); err == nil || errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected raw error, got %v", err)
	}

	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(1), int64(7)).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(true))
	if ok, err := repo.HasAccess(context.Background(), 1, 7); err != nil || !ok {
		t.Fatalf("expected access, got %v err=%v", ok, err)
	}

	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(1), int64(8)).WillReturnError(errors.New("query"))
	if _, err := repo.HasAccess(context.Background(), 1, 8); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestNotificationRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &notificationRepository{storage: storage}

	n := model.Notification{
		Type:    model.NotificationPaymentApproved,
		Title:   "Payment approved",
		Message: "Your payment was approved",
		Data:    map[string]string{"order_id": "o-1"},
	}
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(1), n.Type, n.Title, n.Message, []byte(`{"order_id":"o-1"}`)).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Send(context.Background(), 1, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(2), "t", "", "", []byte(`{}`)).
		WillReturnError(errors.New("insert"))
	if err := repo.Send(context.Background(), 2, model.Notification{Type: "t"}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
