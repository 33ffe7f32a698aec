package repository

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	FindOpenByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error)
	// Transition applies the change only while the order is in one of t.From.
	// It returns ErrInvalidState when the guard fails and ErrNotFound for unknown ids.
	Transition(ctx context.Context, id string, t model.OrderTransition) (*model.Order, error)
	SetExternalPaymentID(ctx context.Context, id, externalID string) error
}

// InvoiceRepository persists billing documents.
type InvoiceRepository interface {
	// Create returns ErrInvoiceNumberConflict when the number is taken and
	// ErrAlreadyExists when the order already has an invoice.
	Create(ctx context.Context, invoice *model.Invoice) error
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Invoice, error)
	SetPDFURL(ctx context.Context, id, url string) error
}
