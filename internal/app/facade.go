package app

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
	"github.com/polkiloo/coursemart/internal/usecase"
)

// MarketplaceFacade is the single entry point used by HTTP handlers, the settlement
// worker and the scheduler.
type MarketplaceFacade struct {
	auth          *usecase.AuthUseCase
	orders        *usecase.OrderUseCase
	settlement    *usecase.SettlementUseCase
	subscriptions *usecase.SubscriptionUseCase
}

func NewMarketplaceFacade(auth *usecase.AuthUseCase, orders *usecase.OrderUseCase, settlement *usecase.SettlementUseCase, subscriptions *usecase.SubscriptionUseCase) *MarketplaceFacade {
	return &MarketplaceFacade{auth: auth, orders: orders, settlement: settlement, subscriptions: subscriptions}
}

func (f *MarketplaceFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *MarketplaceFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *MarketplaceFacade) ParseToken(token string) (pkgAuth.Claims, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketplaceFacade) CreateOrder(ctx context.Context, userID, courseID int64, paymentMethod string) (*model.OrderView, error) {
	order, err := f.orders.CreateOrder(ctx, userID, courseID, paymentMethod)
	return view(order), err
}

func (f *MarketplaceFacade) UploadProof(ctx context.Context, orderID string, userID int64, name, contentType string, data []byte) (*model.OrderView, error) {
	order, err := f.orders.UploadProof(ctx, orderID, userID, usecase.ProofFile{Name: name, ContentType: contentType, Data: data})
	return view(order), err
}

func (f *MarketplaceFacade) GetOrder(ctx context.Context, orderID string, callerID int64, role model.Role) (*model.OrderView, error) {
	return f.orders.GetOrder(ctx, orderID, callerID, role)
}

func (f *MarketplaceFacade) Orders(ctx context.Context, userID int64) ([]model.OrderView, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *MarketplaceFacade) OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.OrderView, error) {
	return f.orders.ListByStatus(ctx, status, limit)
}

// ApproveOrder may return a view together with ErrJobNotQueued.
func (f *MarketplaceFacade) ApproveOrder(ctx context.Context, orderID string, adminNote *string) (*model.OrderView, error) {
	order, err := f.orders.ApproveOrder(ctx, orderID, adminNote)
	return view(order), err
}

// RejectOrder may return a view together with ErrJobNotQueued.
func (f *MarketplaceFacade) RejectOrder(ctx context.Context, orderID, adminNote string) (*model.OrderView, error) {
	order, err := f.orders.RejectOrder(ctx, orderID, adminNote)
	return view(order), err
}

func (f *MarketplaceFacade) ResettleOrder(ctx context.Context, orderID string) (*model.OrderView, error) {
	order, err := f.orders.Resettle(ctx, orderID)
	return view(order), err
}

func (f *MarketplaceFacade) Subscribe(ctx context.Context, userID int64, plan model.PlanType) (*model.Subscription, error) {
	return f.subscriptions.Subscribe(ctx, userID, plan)
}

func (f *MarketplaceFacade) MySubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	return f.subscriptions.GetMySubscription(ctx, userID)
}

func (f *MarketplaceFacade) Subscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	return f.subscriptions.GetSubscription(ctx, id, callerID, role)
}

func (f *MarketplaceFacade) CancelSubscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	return f.subscriptions.Cancel(ctx, id, callerID, role)
}

// HandleJob runs one settlement job.
func (f *MarketplaceFacade) HandleJob(ctx context.Context, job model.Job) error {
	return f.settlement.Handle(ctx, job)
}

// SweepSubscriptions closes subscriptions whose period has ended.
func (f *MarketplaceFacade) SweepSubscriptions(ctx context.Context) (int, error) {
	return f.subscriptions.SweepEnded(ctx)
}

func view(order *model.Order) *model.OrderView {
	if order == nil {
		return nil
	}
	v := order.View()
	return &v
}
