package handlers

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (pkgAuth.Claims, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, userID, courseID int64, paymentMethod string) (*model.OrderView, error)
	UploadProof(ctx context.Context, orderID string, userID int64, name, contentType string, data []byte) (*model.OrderView, error)
	GetOrder(ctx context.Context, orderID string, callerID int64, role model.Role) (*model.OrderView, error)
	Orders(ctx context.Context, userID int64) ([]model.OrderView, error)
	OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.OrderView, error)
	ApproveOrder(ctx context.Context, orderID string, adminNote *string) (*model.OrderView, error)
	RejectOrder(ctx context.Context, orderID, adminNote string) (*model.OrderView, error)
	ResettleOrder(ctx context.Context, orderID string) (*model.OrderView, error)
}

// SubscriptionFacade provides subscription operations.
type SubscriptionFacade interface {
	Subscribe(ctx context.Context, userID int64, plan model.PlanType) (*model.Subscription, error)
	MySubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	Subscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error)
	CancelSubscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	OrderFacade
	SubscriptionFacade
}
