package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the settlement lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
)

// DefaultPaymentMethod is used when the buyer doesn't pick one.
const DefaultPaymentMethod = "bank_transfer"

// Terminal reports whether no further transition may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusPaid || next == OrderStatusFailed
	case OrderStatusProcessing:
		return next == OrderStatusPaid || next == OrderStatusFailed
	default:
		return false
	}
}

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusPaid, OrderStatusFailed}

// TransitionSources returns the statuses an order may move to next from.
func TransitionSources(next OrderStatus) []OrderStatus {
	var from []OrderStatus
	for _, s := range OrderStatuses {
		if s.CanTransition(next) {
			from = append(from, s)
		}
	}
	return from
}

// NonTerminalOrderStatuses block a second order for the same course.
var NonTerminalOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusPaid}

// Order describes a purchase intent and its financial state.
type Order struct {
	ID                string
	UserID            int64
	CourseID          *int64
	Amount            decimal.Decimal
	Currency          string
	Status            OrderStatus
	PaymentMethod     string
	ExternalPaymentID *string
	ProofImageURL     *string
	AdminNote         *string
	Metadata          map[string]string
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderTransition describes a guarded status change.
type OrderTransition struct {
	From          []OrderStatus
	To            OrderStatus
	ProofImageURL *string
	AdminNote     *string
	PaidAt        *time.Time
}

// OrderView is the public projection of an order safe to cache and return to clients.
type OrderView struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	CourseID      *int64          `json:"course_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	ProofImageURL *string         `json:"proof_image_url,omitempty"`
	AdminNote     *string         `json:"admin_note,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// View projects the order without gateway identifiers and metadata.
func (o *Order) View() OrderView {
	return OrderView{
		ID:            o.ID,
		UserID:        o.UserID,
		CourseID:      o.CourseID,
		Amount:        o.Amount,
		Currency:      o.Currency,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		ProofImageURL: o.ProofImageURL,
		AdminNote:     o.AdminNote,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
