package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/adapter/ledger"
	"github.com/polkiloo/coursemart/internal/cache"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/pkg/lock"
	testhelpers "github.com/polkiloo/coursemart/internal/test"
)

const (
	buyerID      int64 = 10
	instructorID int64 = 20
	adminID      int64 = 30
	courseID     int64 = 100
	freeCourseID int64 = 101
	draftID      int64 = 102
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	users         *testhelpers.UserRepositoryStub
	orders        *testhelpers.OrderRepositoryStub
	invoices      *testhelpers.InvoiceRepositoryStub
	subs          *testhelpers.SubscriptionRepositoryStub
	courses       *testhelpers.CourseRepositoryStub
	enrollments   *testhelpers.EnrollmentRepositoryStub
	notifications *testhelpers.NotificationRepositoryStub
	numbers       *testhelpers.NumbererStub
	jobs          *testhelpers.JobQueueStub
	files         *testhelpers.ObjectStoreStub
	cacheStore    *testhelpers.CacheStoreStub
	ledger        *ledger.MemoryLedger
	gateway       testhelpers.GatewayStub
	renderer      testhelpers.RendererStub
	logger        *slog.Logger
}

func newFixture() *fixture {
	users := testhelpers.NewUserRepositoryStub()
	users.Add(model.User{ID: buyerID, Login: "buyer", Role: model.RoleStudent})
	users.Add(model.User{ID: instructorID, Login: "instructor", Role: model.RoleInstructor})
	users.Add(model.User{ID: adminID, Login: "admin", Role: model.RoleAdmin})

	orders := testhelpers.NewOrderRepositoryStub()
	orders.Now = func() time.Time { return fixedNow }

	return &fixture{
		users:    users,
		orders:   orders,
		invoices: testhelpers.NewInvoiceRepositoryStub(),
		subs:     testhelpers.NewSubscriptionRepositoryStub(),
		courses: &testhelpers.CourseRepositoryStub{Courses: map[int64]*model.Course{
			courseID:     {ID: courseID, InstructorID: instructorID, Title: "Go in practice", Published: true, Price: decimal.NewFromInt(50000), Currency: "MNT"},
			freeCourseID: {ID: freeCourseID, InstructorID: instructorID, Title: "Intro", Published: true, Price: decimal.Zero, Currency: "MNT"},
			draftID:      {ID: draftID, InstructorID: instructorID, Title: "Draft", Published: false, Price: decimal.NewFromInt(1000), Currency: "MNT"},
		}},
		enrollments:   testhelpers.NewEnrollmentRepositoryStub(),
		notifications: &testhelpers.NotificationRepositoryStub{},
		numbers:       &testhelpers.NumbererStub{},
		jobs:          &testhelpers.JobQueueStub{},
		files:         testhelpers.NewObjectStoreStub(),
		cacheStore:    testhelpers.NewCacheStoreStub(),
		ledger:        ledger.NewMemoryLedger(),
		logger:        discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) cache() *cache.Service {
	return cache.NewService(f.cacheStore, cache.DefaultTTL, f.logger)
}

func (f *fixture) orderUseCase() *OrderUseCase {
	uc := NewOrderUseCase(OrderParams{
		Orders:      f.orders,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Cache:       f.cache(),
		Jobs:        f.jobs,
		Files:       f.files,
		Gateway:     f.gateway,
		Locker:      lock.NewLocalLocker(),
		Logger:      f.logger,
	})
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func (f *fixture) settlementUseCase() *SettlementUseCase {
	return NewSettlementUseCase(SettlementParams{
		Orders:        f.orders,
		Invoices:      f.invoices,
		Users:         f.users,
		Courses:       f.courses,
		Enrollments:   f.enrollments,
		Notifications: f.notifications,
		Numbers:       f.numbers,
		Ledger:        f.ledger,
		Jobs:          f.jobs,
		Files:         f.files,
		Renderer:      f.renderer,
		Cache:         f.cache(),
		Logger:        f.logger,
	})
}

func (f *fixture) subscriptionUseCase() *SubscriptionUseCase {
	uc := NewSubscriptionUseCase(f.subs, f.cache(), f.logger)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func (f *fixture) putOrder(id string, status model.OrderStatus) model.Order {
	cid := courseID
	o := model.Order{
		ID:            id,
		UserID:        buyerID,
		CourseID:      &cid,
		Amount:        decimal.NewFromInt(50000),
		Currency:      "MNT",
		Status:        status,
		PaymentMethod: model.DefaultPaymentMethod,
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
	f.orders.Put(o)
	return o
}

func strPtr(s string) *string { return &s }
