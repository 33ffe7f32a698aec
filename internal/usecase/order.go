package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	"github.com/polkiloo/coursemart/internal/adapter/objectstore"
	"github.com/polkiloo/coursemart/internal/cache"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
	"github.com/polkiloo/coursemart/internal/pkg/lock"
)

const maxListLimit = 100

// JobQueue publishes settlement jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.Job) error
}

// ProofFile is an uploaded payment proof.
type ProofFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// OrderParams groups OrderUseCase dependencies.
type OrderParams struct {
	fx.In

	Orders      repository.OrderRepository
	Courses     repository.CourseRepository
	Enrollments repository.EnrollmentRepository
	Cache       *cache.Service
	Jobs        JobQueue
	Files       objectstore.Store
	Gateway     gateway.Gateway
	Locker      lock.Locker
	Logger      *slog.Logger
}

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	orders      repository.OrderRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	cache       *cache.Service
	jobs        JobQueue
	files       objectstore.Store
	gateway     gateway.Gateway
	locker      lock.Locker
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(p OrderParams) *OrderUseCase {
	return &OrderUseCase{
		orders:      p.Orders,
		courses:     p.Courses,
		enrollments: p.Enrollments,
		cache:       p.Cache,
		jobs:        p.Jobs,
		files:       p.Files,
		gateway:     p.Gateway,
		locker:      p.Locker,
		logger:      p.Logger,
		now:         time.Now,
	}
}

// CreateOrder opens a pending order for a paid course.
func (u *OrderUseCase) CreateOrder(ctx context.Context, userID, courseID int64, paymentMethod string) (*model.Order, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		paymentMethod = model.DefaultPaymentMethod
	}

	var (
		order  *model.Order
		course *model.Course
	)
	key := fmt.Sprintf("order:create:%d:%d", userID, courseID)
	err := u.locker.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		course, err = u.courses.GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !course.Published {
			return domainErrors.ErrCourseUnavailable
		}
		if !course.Price.IsPositive() {
			return domainErrors.ErrFreeCourse
		}

		enrolled, err := u.enrollments.HasAccess(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if enrolled {
			return domainErrors.ErrAlreadyEnrolled
		}

		if _, err := u.orders.FindOpenByUserAndCourse(ctx, userID, courseID); err == nil {
			return domainErrors.ErrAlreadyExists
		} else if !errors.Is(err, domainErrors.ErrNotFound) {
			return err
		}

		order = &model.Order{
			UserID:        userID,
			CourseID:      &courseID,
			Amount:        course.EffectivePrice(),
			Currency:      course.Currency,
			Status:        model.OrderStatusPending,
			PaymentMethod: paymentMethod,
			Metadata:      map[string]string{"course_title": course.Title},
		}
		return u.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	u.openCheckout(ctx, order, course)
	return order, nil
}

func (u *OrderUseCase) openCheckout(ctx context.Context, order *model.Order, course *model.Course) {
	sessionID, err := u.gateway.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: course.Title,
	})
	if err != nil {
		u.logger.Warn("checkout session not created", slog.String("order_id", order.ID), slog.Any("error", err))
		return
	}
	if err := u.orders.SetExternalPaymentID(ctx, order.ID, sessionID); err != nil {
		u.logger.Warn("checkout session not stored", slog.String("order_id", order.ID), slog.Any("error", err))
		return
	}
	order.ExternalPaymentID = &sessionID
}

// UploadProof stores a payment proof and moves the order to processing.
func (u *OrderUseCase) UploadProof(ctx context.Context, orderID string, userID int64, file ProofFile) (*model.Order, error) {
	if len(file.Data) == 0 {
		return nil, domainErrors.ErrInvalidArgument
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	if order.Status != model.OrderStatusPending {
		return nil, domainErrors.ErrInvalidState
	}

	key := proofKey(orderID, file.Name)
	url, err := u.files.Put(ctx, key, file.ContentType, file.Data)
	if err != nil {
		return nil, err
	}

	updated, err := u.orders.Transition(ctx, orderID, model.OrderTransition{
		From:          model.TransitionSources(model.OrderStatusProcessing),
		To:            model.OrderStatusProcessing,
		ProofImageURL: &url,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidState) {
			if delErr := u.files.Delete(ctx, key); delErr != nil {
				u.logger.Warn("orphaned proof not deleted", slog.String("order_id", orderID), slog.String("key", key), slog.Any("error", delErr))
			}
		}
		return nil, err
	}

	u.invalidate(ctx, orderID)
	return updated, nil
}

func proofKey(orderID, name string) string {
	return fmt.Sprintf("payment-proofs/%s/%s%s", orderID, uuid.NewString(), strings.ToLower(filepath.Ext(name)))
}

// ApproveOrder marks the order paid and enqueues its settlement.
func (u *OrderUseCase) ApproveOrder(ctx context.Context, orderID string, adminNote *string) (*model.Order, error) {
	paidAt := u.now().UTC()
	updated, err := u.orders.Transition(ctx, orderID, model.OrderTransition{
		From:      model.TransitionSources(model.OrderStatusPaid),
		To:        model.OrderStatusPaid,
		AdminNote: normalizeNote(adminNote),
		PaidAt:    &paidAt,
	})
	if err != nil {
		return nil, err
	}
	return u.settled(ctx, updated, model.PaymentApprovedJob(orderID))
}

// RejectOrder marks the order failed and enqueues the rejection notice.
func (u *OrderUseCase) RejectOrder(ctx context.Context, orderID string, adminNote string) (*model.Order, error) {
	note := normalizeNote(&adminNote)
	if note == nil {
		return nil, domainErrors.ErrInvalidArgument
	}
	updated, err := u.orders.Transition(ctx, orderID, model.OrderTransition{
		From:      model.TransitionSources(model.OrderStatusFailed),
		To:        model.OrderStatusFailed,
		AdminNote: note,
	})
	if err != nil {
		return nil, err
	}
	return u.settled(ctx, updated, model.PaymentRejectedJob(orderID))
}

// settled runs after a committed approve or reject.
func (u *OrderUseCase) settled(ctx context.Context, order *model.Order, job model.Job) (*model.Order, error) {
	u.invalidate(ctx, order.ID)
	if err := u.jobs.Enqueue(ctx, job); err != nil {
		u.logger.Error("settlement job not queued",
			slog.String("order_id", order.ID),
			slog.String("kind", string(job.Kind)),
			slog.Any("error", err),
		)
		return order, fmt.Errorf("%w: %v", domainErrors.ErrJobNotQueued, err)
	}
	return order, nil
}

// Resettle re-enqueues the settlement job of a paid or failed order.
func (u *OrderUseCase) Resettle(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var job model.Job
	switch order.Status {
	case model.OrderStatusPaid:
		job = model.PaymentApprovedJob(orderID)
	case model.OrderStatusFailed:
		job = model.PaymentRejectedJob(orderID)
	default:
		return nil, domainErrors.ErrInvalidState
	}
	if err := u.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrJobNotQueued, err)
	}
	u.logger.Info("settlement job re-enqueued", slog.String("order_id", orderID), slog.String("kind", string(job.Kind)))
	return order, nil
}

// GetOrder returns the public view of an order visible to the caller.
func (u *OrderUseCase) GetOrder(ctx context.Context, orderID string, callerID int64, role model.Role) (*model.OrderView, error) {
	view, err := u.cache.Order(ctx, orderID, func(ctx context.Context) (*model.Order, error) {
		return u.orders.GetByID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	if role == model.RoleAdmin || view.UserID == callerID {
		return view, nil
	}
	if role == model.RoleInstructor && view.CourseID != nil {
		course, err := u.courses.GetByID(ctx, *view.CourseID)
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
		if course != nil && course.InstructorID == callerID {
			return view, nil
		}
	}
	return nil, domainErrors.ErrForbidden
}

// ListByUser returns the caller's orders.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.OrderView, error) {
	orders, err := u.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return views(orders), nil
}

// ListByStatus returns orders awaiting an administrator, oldest first.
func (u *OrderUseCase) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.OrderView, error) {
	switch status {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusPaid, model.OrderStatusFailed:
	default:
		return nil, domainErrors.ErrInvalidArgument
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	orders, err := u.orders.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	return views(orders), nil
}

func (u *OrderUseCase) invalidate(ctx context.Context, orderID string) {
	if err := u.cache.InvalidateOrder(ctx, orderID); err != nil {
		u.logger.Warn("order cache not invalidated", slog.String("order_id", orderID), slog.Any("error", err))
	}
}

func views(orders []model.Order) []model.OrderView {
	out := make([]model.OrderView, 0, len(orders))
	for i := range orders {
		out = append(out, orders[i].View())
	}
	return out
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
