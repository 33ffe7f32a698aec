package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/adapter/ledger"
	"github.com/polkiloo/coursemart/internal/cache"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
	"github.com/polkiloo/coursemart/internal/pkg/lock"
	testhelpers "github.com/polkiloo/coursemart/internal/test"
	"github.com/polkiloo/coursemart/internal/usecase"
)

type facadeDeps struct {
	users         *testhelpers.UserRepositoryStub
	orders        *testhelpers.OrderRepositoryStub
	jobs          *testhelpers.JobQueueStub
	notifications *testhelpers.NotificationRepositoryStub
	subs          *testhelpers.SubscriptionRepositoryStub
}

func newFacade() (*MarketplaceFacade, *facadeDeps) {
	d := &facadeDeps{
		users:         testhelpers.NewUserRepositoryStub(),
		orders:        testhelpers.NewOrderRepositoryStub(),
		jobs:          &testhelpers.JobQueueStub{},
		notifications: &testhelpers.NotificationRepositoryStub{},
		subs:          testhelpers.NewSubscriptionRepositoryStub(),
	}
	d.users.Add(model.User{ID: 5, Login: "buyer", Role: model.RoleStudent})
	logger := discardLogger()
	cacheSvc := cache.NewService(testhelpers.NewCacheStoreStub(), cache.DefaultTTL, logger)
	courses := &testhelpers.CourseRepositoryStub{Courses: map[int64]*model.Course{
		7: {ID: 7, InstructorID: 2, Title: "Distributed systems", Published: true, Price: decimal.NewFromInt(50000), Currency: "MNT"},
	}}
	enrollments := testhelpers.NewEnrollmentRepositoryStub()
	files := testhelpers.NewObjectStoreStub()

	strategy := testhelpers.StrategyStub{ParseFn: func(string) (pkgAuth.Claims, error) {
		return pkgAuth.Claims{UserID: 99, Role: model.RoleAdmin}, nil
	}}
	authUC := usecase.NewAuthUseCase(usecase.AuthParams{Users: d.users, Hasher: testhelpers.HasherStub{}, Tokens: strategy, Logger: logger})
	orderUC := usecase.NewOrderUseCase(usecase.OrderParams{
		Orders:      d.orders,
		Courses:     courses,
		Enrollments: enrollments,
		Cache:       cacheSvc,
		Jobs:        d.jobs,
		Files:       files,
		Gateway:     testhelpers.GatewayStub{},
		Locker:      lock.NewLocalLocker(),
		Logger:      logger,
	})
	settlementUC := usecase.NewSettlementUseCase(usecase.SettlementParams{
		Orders:        d.orders,
		Invoices:      testhelpers.NewInvoiceRepositoryStub(),
		Users:         d.users,
		Courses:       courses,
		Enrollments:   enrollments,
		Notifications: d.notifications,
		Numbers:       &testhelpers.NumbererStub{},
		Ledger:        ledger.NewMemoryLedger(),
		Jobs:          d.jobs,
		Files:         files,
		Renderer:      testhelpers.RendererStub{},
		Cache:         cacheSvc,
		Logger:        logger,
	})
	subscriptionUC := usecase.NewSubscriptionUseCase(d.subs, cacheSvc, logger)

	return NewMarketplaceFacade(authUC, orderUC, settlementUC, subscriptionUC), d
}

func TestMarketplaceFacadeAuth(t *testing.T) {
	facade, d := newFacade()
	token, err := facade.Register(context.Background(), "user", "pass")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if token != "token" {
		t.Fatalf("unexpected token %q", token)
	}
	if _, err := d.users.GetByLogin(context.Background(), "user"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}

	if token, err = facade.Authenticate(context.Background(), "user", "pass"); err != nil || token != "token" {
		t.Fatalf("unexpected authenticate result %q, %v", token, err)
	}

	claims, err := facade.ParseToken("anything")
	if err != nil {
		t.Fatalf("parse token returned error: %v", err)
	}
	if claims.UserID != 99 || claims.Role != model.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestMarketplaceFacadeOrderFlow(t *testing.T) {
	facade, d := newFacade()
	ctx := context.Background()

	created, err := facade.CreateOrder(ctx, 5, 7, "")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.Status != model.OrderStatusPending || created.UserID != 5 {
		t.Fatalf("unexpected view %+v", created)
	}

	listed, err := facade.Orders(ctx, 5)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one order, got %v err=%v", listed, err)
	}
	pending, err := facade.OrdersByStatus(ctx, model.OrderStatusPending, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending order, got %v err=%v", pending, err)
	}

	approved, err := facade.ApproveOrder(ctx, created.ID, nil)
	if err != nil || approved.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected approve result %+v, %v", approved, err)
	}
	if len(d.jobs.Jobs) != 1 {
		t.Fatalf("expected one settlement job, got %d", len(d.jobs.Jobs))
	}

	if err := facade.HandleJob(ctx, d.jobs.Jobs[0]); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	if d.notifications.Count() != 1 {
		t.Fatalf("expected one notification, got %d", d.notifications.Count())
	}

	got, err := facade.GetOrder(ctx, created.ID, 5, model.RoleStudent)
	if err != nil || got.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected order %+v, %v", got, err)
	}
}

func TestMarketplaceFacadeJobNotQueued(t *testing.T) {
	facade, d := newFacade()
	ctx := context.Background()
	created, _ := facade.CreateOrder(ctx, 5, 7, "")

	d.jobs.EnqueueFn = func(context.Context, model.Job) error { return errors.New("queue down") }
	rejected, err := facade.RejectOrder(ctx, created.ID, "blurry")
	if !errors.Is(err, domainErrors.ErrJobNotQueued) {
		t.Fatalf("expected ErrJobNotQueued, got %v", err)
	}
	if rejected == nil || rejected.Status != model.OrderStatusFailed {
		t.Fatalf("committed transition must be returned, got %+v", rejected)
	}

	d.jobs.EnqueueFn = nil
	resettled, err := facade.ResettleOrder(ctx, created.ID)
	if err != nil || resettled.ID != created.ID {
		t.Fatalf("unexpected resettle result %+v, %v", resettled, err)
	}
	if len(d.jobs.Jobs) != 1 || d.jobs.Jobs[0].Kind != model.JobPaymentRejected {
		t.Fatalf("expected rejection job, got %+v", d.jobs.Jobs)
	}
}

func TestMarketplaceFacadeSubscriptions(t *testing.T) {
	facade, _ := newFacade()
	ctx := context.Background()

	if sub, err := facade.MySubscription(ctx, 5); err != nil || sub != nil {
		t.Fatalf("expected no subscription, got %+v, %v", sub, err)
	}
	sub, err := facade.Subscribe(ctx, 5, model.PlanMonthly)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got, err := facade.Subscription(ctx, sub.ID, 5, model.RoleStudent); err != nil || got.ID != sub.ID {
		t.Fatalf("unexpected subscription %+v, %v", got, err)
	}
	cancelled, err := facade.CancelSubscription(ctx, sub.ID, 5, model.RoleStudent)
	if err != nil || !cancelled.CancelAtPeriodEnd {
		t.Fatalf("unexpected cancel result %+v, %v", cancelled, err)
	}
	if closed, err := facade.SweepSubscriptions(ctx); err != nil || closed != 0 {
		t.Fatalf("expected nothing to sweep, got %d, %v", closed, err)
	}
}
