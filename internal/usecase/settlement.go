package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/ledger"
	"github.com/polkiloo/coursemart/internal/adapter/objectstore"
	"github.com/polkiloo/coursemart/internal/adapter/pdf"
	"github.com/polkiloo/coursemart/internal/cache"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
	"github.com/polkiloo/coursemart/internal/queue"
)

// MaxNumberingAttempts bounds invoice number generation per job.
const MaxNumberingAttempts = 3

// releaseTimeout bounds the claim release that follows a failed send.
// The release runs detached from the job context, which may already be done.
const releaseTimeout = 5 * time.Second

// InvoiceNumberer produces candidate invoice numbers.
type InvoiceNumberer interface {
	Next() (string, error)
}

// SettlementParams groups SettlementUseCase dependencies.
type SettlementParams struct {
	fx.In

	Orders        repository.OrderRepository
	Invoices      repository.InvoiceRepository
	Users         repository.UserRepository
	Courses       repository.CourseRepository
	Enrollments   repository.EnrollmentRepository
	Notifications repository.NotificationRepository
	Numbers       InvoiceNumberer
	Ledger        ledger.Ledger
	Jobs          JobQueue
	Files         objectstore.Store
	Renderer      pdf.Renderer
	Cache         *cache.Service
	Logger        *slog.Logger
}

// SettlementUseCase performs the side effects of settled orders.
// Every handler is safe to run more than once for the same job.
type SettlementUseCase struct {
	orders        repository.OrderRepository
	invoices      repository.InvoiceRepository
	users         repository.UserRepository
	courses       repository.CourseRepository
	enrollments   repository.EnrollmentRepository
	notifications repository.NotificationRepository
	numbers       InvoiceNumberer
	ledger        ledger.Ledger
	jobs          JobQueue
	files         objectstore.Store
	renderer      pdf.Renderer
	cache         *cache.Service
	logger        *slog.Logger
}

// NewSettlementUseCase constructs SettlementUseCase.
func NewSettlementUseCase(p SettlementParams) *SettlementUseCase {
	return &SettlementUseCase{
		orders:        p.Orders,
		invoices:      p.Invoices,
		users:         p.Users,
		courses:       p.Courses,
		enrollments:   p.Enrollments,
		notifications: p.Notifications,
		numbers:       p.Numbers,
		ledger:        p.Ledger,
		jobs:          p.Jobs,
		files:         p.Files,
		renderer:      p.Renderer,
		cache:         p.Cache,
		logger:        p.Logger,
	}
}

// Handle dispatches job to its handler.
func (u *SettlementUseCase) Handle(ctx context.Context, job model.Job) error {
	switch job.Kind {
	case model.JobPaymentApproved:
		return u.handlePaymentApproved(ctx, job)
	case model.JobPaymentRejected:
		return u.handlePaymentRejected(ctx, job)
	case model.JobGenerateInvoicePDF:
		return u.handleGenerateInvoicePDF(ctx, job)
	default:
		return queue.Permanent(fmt.Errorf("unknown job kind %q", job.Kind))
	}
}

func (u *SettlementUseCase) handlePaymentApproved(ctx context.Context, job model.Job) error {
	order, err := u.loadOrder(ctx, job)
	if err != nil {
		return err
	}
	if order.Status != model.OrderStatusPaid {
		u.logger.Warn("approved job for unpaid order dropped", slog.String("order_id", order.ID), slog.String("status", string(order.Status)))
		return queue.Permanent(domainErrors.ErrInvalidState)
	}

	if order.CourseID != nil {
		if err := u.enrollments.Grant(ctx, order.UserID, *order.CourseID); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return fmt.Errorf("grant enrollment: %w", err)
		}
	}

	invoice, issueErr := u.issueInvoice(ctx, order)
	if issueErr != nil && !errors.Is(issueErr, domainErrors.ErrInvoiceNumberExhausted) {
		return issueErr
	}

	data := map[string]string{"order_id": order.ID}
	if invoice != nil {
		data["invoice_id"] = invoice.ID
		data["invoice_number"] = invoice.InvoiceNumber
	}
	notice := model.Notification{
		Type:    model.NotificationPaymentApproved,
		Title:   "Payment approved",
		Message: fmt.Sprintf("Your payment of %s %s was approved.", order.Amount.StringFixed(2), order.Currency),
		Data:    data,
	}
	if err := u.notifyOnce(ctx, job, order.UserID, notice); err != nil {
		return err
	}

	if invoice != nil && invoice.PDFURL == nil {
		if err := u.jobs.Enqueue(ctx, model.GenerateInvoicePDFJob(invoice.ID)); err != nil {
			return fmt.Errorf("enqueue invoice document: %w", err)
		}
	}

	if err := u.cache.InvalidateOrder(ctx, order.ID); err != nil {
		return errors.Join(issueErr, err)
	}
	return issueErr
}

// issueInvoice returns the order's invoice, creating it when missing.
func (u *SettlementUseCase) issueInvoice(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	existing, err := u.invoices.GetByOrderID(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= MaxNumberingAttempts; attempt++ {
		number, err := u.numbers.Next()
		if err != nil {
			return nil, err
		}
		invoice := &model.Invoice{
			OrderID:       order.ID,
			InvoiceNumber: number,
			Amount:        order.Amount,
			Currency:      order.Currency,
		}
		err = u.invoices.Create(ctx, invoice)
		switch {
		case err == nil:
			u.logger.Info("invoice issued", slog.String("order_id", order.ID), slog.String("invoice_number", number))
			return invoice, nil
		case errors.Is(err, domainErrors.ErrInvoiceNumberConflict):
			u.logger.Warn("invoice number collision", slog.String("order_id", order.ID), slog.String("invoice_number", number), slog.Int("attempt", attempt))
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			return u.invoices.GetByOrderID(ctx, order.ID)
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: order %s after %d attempts", domainErrors.ErrInvoiceNumberExhausted, order.ID, MaxNumberingAttempts)
}

func (u *SettlementUseCase) handlePaymentRejected(ctx context.Context, job model.Job) error {
	order, err := u.loadOrder(ctx, job)
	if err != nil {
		return err
	}

	note := ""
	if order.AdminNote != nil {
		note = *order.AdminNote
	}
	message := "Your payment was rejected."
	if note != "" {
		message = "Your payment was rejected: " + note
	}
	notice := model.Notification{
		Type:    model.NotificationPaymentRejected,
		Title:   "Payment rejected",
		Message: message,
		Data:    map[string]string{"order_id": order.ID, "admin_note": note},
	}
	if err := u.notifyOnce(ctx, job, order.UserID, notice); err != nil {
		return err
	}
	return u.cache.InvalidateOrder(ctx, order.ID)
}

func (u *SettlementUseCase) handleGenerateInvoicePDF(ctx context.Context, job model.Job) error {
	invoice, err := u.invoices.GetByID(ctx, job.InvoiceID)
	if err != nil {
		return u.dropIfMissing(err, "invoice", job)
	}
	order, err := u.orders.GetByID(ctx, invoice.OrderID)
	if err != nil {
		return u.dropIfMissing(err, "order", job)
	}
	buyer, err := u.users.GetByID(ctx, order.UserID)
	if err != nil {
		return u.dropIfMissing(err, "buyer", job)
	}

	doc := pdf.InvoiceDocument{Invoice: *invoice, BuyerLogin: buyer.Login}
	if order.PaidAt != nil {
		doc.PaidAt = *order.PaidAt
	}
	if order.CourseID != nil {
		course, err := u.courses.GetByID(ctx, *order.CourseID)
		switch {
		case err == nil:
			doc.CourseTitle = course.Title
		case !errors.Is(err, domainErrors.ErrNotFound):
			return err
		}
	}

	body, err := u.renderer.RenderInvoice(doc)
	if err != nil {
		return err
	}
	url, err := u.files.Put(ctx, model.InvoicePDFPath(invoice.ID), pdf.ContentType, body)
	if err != nil {
		return err
	}
	if err := u.invoices.SetPDFURL(ctx, invoice.ID, url); err != nil {
		return err
	}
	u.logger.Info("invoice document stored", slog.String("invoice_id", invoice.ID), slog.String("url", url))
	return nil
}

func (u *SettlementUseCase) loadOrder(ctx context.Context, job model.Job) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, job.OrderID)
	if err != nil {
		return nil, u.dropIfMissing(err, "order", job)
	}
	return order, nil
}

func (u *SettlementUseCase) dropIfMissing(err error, what string, job model.Job) error {
	if errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Warn(what+" not found, job dropped", slog.String("job_id", job.ID), slog.String("kind", string(job.Kind)))
		return queue.Permanent(fmt.Errorf("%s for %s: %w", what, job.Key(), err))
	}
	return err
}

// notifyOnce sends n unless a previous delivery of the same job already did.
func (u *SettlementUseCase) notifyOnce(ctx context.Context, job model.Job, userID int64, n model.Notification) error {
	key := "notification:" + job.Key()
	claimed, err := u.ledger.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !claimed {
		u.logger.Debug("notification already sent", slog.String("key", key))
		return nil
	}
	if err := u.notifications.Send(ctx, userID, n); err != nil {
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if relErr := u.ledger.Release(relCtx, key); relErr != nil {
			u.logger.Error("notification claim not released", slog.String("key", key), slog.Any("error", relErr))
		}
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
