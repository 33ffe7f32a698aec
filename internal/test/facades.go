package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/queue"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn   func(context.Context, int64, int64, string) (*model.OrderView, error)
	UploadFn   func(context.Context, string, int64, string, string, []byte) (*model.OrderView, error)
	GetFn      func(context.Context, string, int64, model.Role) (*model.OrderView, error)
	OrdersFn   func(context.Context, int64) ([]model.OrderView, error)
	ByStatusFn func(context.Context, model.OrderStatus, int) ([]model.OrderView, error)
	ApproveFn  func(context.Context, string, *string) (*model.OrderView, error)
	RejectFn   func(context.Context, string, string) (*model.OrderView, error)
	ResettleFn func(context.Context, string) (*model.OrderView, error)
}

// CreateOrder delegates to provided function or returns a pending order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, userID, courseID int64, paymentMethod string) (*model.OrderView, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, userID, courseID, paymentMethod)
	}
	return &model.OrderView{ID: "order-1", UserID: userID, CourseID: &courseID, Status: model.OrderStatusPending, PaymentMethod: paymentMethod}, nil
}

// UploadProof delegates to provided function or returns a processing order.
func (s OrderFacadeStub) UploadProof(ctx context.Context, orderID string, userID int64, name, contentType string, data []byte) (*model.OrderView, error) {
	if s.UploadFn != nil {
		return s.UploadFn(ctx, orderID, userID, name, contentType, data)
	}
	url := "https://files.test/" + name
	return &model.OrderView{ID: orderID, UserID: userID, Status: model.OrderStatusProcessing, ProofImageURL: &url}, nil
}

// GetOrder delegates to provided function or returns the caller's order.
func (s OrderFacadeStub) GetOrder(ctx context.Context, orderID string, callerID int64, role model.Role) (*model.OrderView, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, orderID, callerID, role)
	}
	return &model.OrderView{ID: orderID, UserID: callerID, Status: model.OrderStatusPending}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.OrderView, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.OrderView{{ID: "order-1", UserID: userID, Status: model.OrderStatusPending}}, nil
}

// OrdersByStatus returns predefined orders in the given status.
func (s OrderFacadeStub) OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.OrderView, error) {
	if s.ByStatusFn != nil {
		return s.ByStatusFn(ctx, status, limit)
	}
	return []model.OrderView{{ID: "order-1", Status: status}}, nil
}

// ApproveOrder delegates to provided function or returns a paid order.
func (s OrderFacadeStub) ApproveOrder(ctx context.Context, orderID string, adminNote *string) (*model.OrderView, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, orderID, adminNote)
	}
	return &model.OrderView{ID: orderID, Status: model.OrderStatusPaid, AdminNote: adminNote}, nil
}

// RejectOrder delegates to provided function or returns a failed order.
func (s OrderFacadeStub) RejectOrder(ctx context.Context, orderID, adminNote string) (*model.OrderView, error) {
	if s.RejectFn != nil {
		return s.RejectFn(ctx, orderID, adminNote)
	}
	return &model.OrderView{ID: orderID, Status: model.OrderStatusFailed, AdminNote: &adminNote}, nil
}

// ResettleOrder delegates to provided function or returns a paid order.
func (s OrderFacadeStub) ResettleOrder(ctx context.Context, orderID string) (*model.OrderView, error) {
	if s.ResettleFn != nil {
		return s.ResettleFn(ctx, orderID)
	}
	return &model.OrderView{ID: orderID, Status: model.OrderStatusPaid}, nil
}

// SubscriptionFacadeStub simulates subscription operations.
type SubscriptionFacadeStub struct {
	SubscribeFn func(context.Context, int64, model.PlanType) (*model.Subscription, error)
	MineFn      func(context.Context, int64) (*model.Subscription, error)
	GetFn       func(context.Context, string, int64, model.Role) (*model.Subscription, error)
	CancelFn    func(context.Context, string, int64, model.Role) (*model.Subscription, error)
}

// Subscribe delegates to provided function or returns an active subscription.
func (s SubscriptionFacadeStub) Subscribe(ctx context.Context, userID int64, plan model.PlanType) (*model.Subscription, error) {
	if s.SubscribeFn != nil {
		return s.SubscribeFn(ctx, userID, plan)
	}
	return &model.Subscription{ID: "sub-1", UserID: userID, PlanType: plan, Status: model.SubscriptionActive}, nil
}

// MySubscription delegates to provided function or reports no subscription.
func (s SubscriptionFacadeStub) MySubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	if s.MineFn != nil {
		return s.MineFn(ctx, userID)
	}
	return nil, nil
}

// Subscription delegates to provided function or returns the caller's subscription.
func (s SubscriptionFacadeStub) Subscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id, callerID, role)
	}
	return &model.Subscription{ID: id, UserID: callerID, Status: model.SubscriptionActive}, nil
}

// CancelSubscription delegates to provided function or returns a cancelled-at-period-end subscription.
func (s SubscriptionFacadeStub) CancelSubscription(ctx context.Context, id string, callerID int64, role model.Role) (*model.Subscription, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, id, callerID, role)
	}
	return &model.Subscription{ID: id, UserID: callerID, Status: model.SubscriptionActive, CancelAtPeriodEnd: true}, nil
}

// MarketplaceFacadeStub aggregates facade stubs for router tests.
type MarketplaceFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	SubscriptionFacadeStub
}

// SettlementFacadeStub records settlement jobs handed to the facade.
type SettlementFacadeStub struct {
	HandleFn func(context.Context, model.Job) error
	Handled  chan model.Job

	mu   sync.Mutex
	jobs []model.Job
}

// HandleJob records job and delegates to HandleFn.
func (s *SettlementFacadeStub) HandleJob(ctx context.Context, job model.Job) error {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	if s.Handled != nil {
		select {
		case s.Handled <- job:
		default:
		}
	}
	if s.HandleFn != nil {
		return s.HandleFn(ctx, job)
	}
	return nil
}

// Jobs returns a copy of handled jobs.
func (s *SettlementFacadeStub) Jobs() []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Job(nil), s.jobs...)
}

// SettleCall stores one Settle invocation.
type SettleCall struct {
	Delivery  queue.Delivery
	HandleErr error
}

// JobSourceStub serves preconfigured batches and records settlements.
type JobSourceStub struct {
	Batches     [][]queue.Delivery
	ReceiveErr  error
	Disposition queue.Disposition
	Settled     chan SettleCall

	calls int32
	mu    sync.Mutex
	log   []SettleCall
}

// Receive returns the next configured batch, then empty batches.
func (s *JobSourceStub) Receive(ctx context.Context) ([]queue.Delivery, error) {
	if s.ReceiveErr != nil {
		return nil, s.ReceiveErr
	}
	call := atomic.AddInt32(&s.calls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

// Settle records the call and returns the configured disposition.
func (s *JobSourceStub) Settle(ctx context.Context, d queue.Delivery, handleErr error) (queue.Disposition, error) {
	call := SettleCall{Delivery: d, HandleErr: handleErr}
	s.mu.Lock()
	s.log = append(s.log, call)
	s.mu.Unlock()
	if s.Settled != nil {
		s.Settled <- call
	}
	if s.Disposition != "" {
		return s.Disposition, nil
	}
	return queue.Processed, nil
}

// Calls returns recorded settlements.
func (s *JobSourceStub) Calls() []SettleCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SettleCall(nil), s.log...)
}

// BatchSettlerStub decides dispositions through DecideFn and records queue side effects.
type BatchSettlerStub struct {
	DecideFn   func(queue.Delivery, error) queue.Disposition
	Forwarded  bool
	ForwardErr error
	Retried    []string
	Forwards   []string
}

// Decide delegates to DecideFn or marks everything processed.
func (s *BatchSettlerStub) Decide(d queue.Delivery, handleErr error) queue.Disposition {
	if s.DecideFn != nil {
		return s.DecideFn(d, handleErr)
	}
	return queue.Processed
}

// Retry records the delayed message.
func (s *BatchSettlerStub) Retry(ctx context.Context, d queue.Delivery) error {
	s.Retried = append(s.Retried, d.MessageID)
	return nil
}

// Forward records the dead-lettered message.
func (s *BatchSettlerStub) Forward(ctx context.Context, d queue.Delivery, reason string) (bool, error) {
	s.Forwards = append(s.Forwards, d.MessageID)
	if s.ForwardErr != nil {
		return false, s.ForwardErr
	}
	return s.Forwarded, nil
}

// RecorderStub collects job outcomes.
type RecorderStub struct {
	mu       sync.Mutex
	Outcomes []string
}

// RecordJob stores kind and outcome.
func (s *RecorderStub) RecordJob(ctx context.Context, kind, outcome string, elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outcomes = append(s.Outcomes, kind+"/"+outcome)
	return nil
}

// Recorded returns a copy of recorded outcomes.
func (s *RecorderStub) Recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Outcomes...)
}

// SweepFacadeStub counts subscription sweeps.
type SweepFacadeStub struct {
	Closed int
	Err    error
	Called chan struct{}

	calls int32
}

// SweepSubscriptions returns the configured result.
func (s *SweepFacadeStub) SweepSubscriptions(ctx context.Context) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.Called != nil {
		select {
		case s.Called <- struct{}{}:
		default:
		}
	}
	return s.Closed, s.Err
}

// Calls returns the number of sweeps.
func (s *SweepFacadeStub) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}
