package test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users     map[string]*model.User
	ByID      map[int64]*model.User
	Next      int64
	Err       error
	UpdateErr error
	Rehashed  int
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	if role == "" {
		role = model.RoleStudent
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdatePasswordHash replaces the stored hash of an existing user.
func (s *UserRepositoryStub) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	user, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.Rehashed++
	return nil
}

// Add stores a user directly.
func (s *UserRepositoryStub) Add(user model.User) {
	u := user
	s.Users[u.Login] = &u
	s.ByID[u.ID] = &u
}

// OrderRepositoryStub keeps orders in memory and mirrors the store's guards.
type OrderRepositoryStub struct {
	CreateFn     func(context.Context, *model.Order) error
	GetByIDFn    func(context.Context, string) (*model.Order, error)
	TransitionFn func(context.Context, string, model.OrderTransition) (*model.Order, error)

	mu      sync.Mutex
	Orders  map[string]*model.Order
	next    int
	Creates int
	Now     func() time.Time
}

// NewOrderRepositoryStub returns an empty order store.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[string]*model.Order), Now: time.Now}
}

// Create stores order; a second non-terminal order for the same pair is rejected like the partial index does.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creates++
	if order.CourseID != nil {
		for _, o := range s.Orders {
			if o.UserID == order.UserID && o.CourseID != nil && *o.CourseID == *order.CourseID &&
				slices.Contains(model.NonTerminalOrderStatuses, o.Status) {
				return domainErrors.ErrAlreadyExists
			}
		}
	}
	if order.ID == "" {
		s.next++
		order.ID = fmt.Sprintf("order-%d", s.next)
	}
	now := s.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := *order
	s.Orders[order.ID] = &stored
	return nil
}

// Put stores order as-is.
func (s *OrderRepositoryStub) Put(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := order
	s.Orders[o.ID] = &o
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// FindOpenByUserAndCourse returns the non-terminal order for the pair.
func (s *OrderRepositoryStub) FindOpenByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.UserID == userID && o.CourseID != nil && *o.CourseID == courseID &&
			slices.Contains(model.NonTerminalOrderStatuses, o.Status) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns the user's orders.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool { return o.UserID == userID }, 0), nil
}

// ListByStatus returns up to limit orders in status.
func (s *OrderRepositoryStub) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool { return o.Status == status }, limit), nil
}

func (s *OrderRepositoryStub) filter(keep func(*model.Order) bool, limit int) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.Orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Transition applies t when the order is in one of t.From.
func (s *OrderRepositoryStub) Transition(ctx context.Context, id string, t model.OrderTransition) (*model.Order, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, id, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if !slices.Contains(t.From, o.Status) {
		return nil, domainErrors.ErrInvalidState
	}
	o.Status = t.To
	if t.ProofImageURL != nil {
		o.ProofImageURL = t.ProofImageURL
	}
	if t.AdminNote != nil {
		o.AdminNote = t.AdminNote
	}
	if t.PaidAt != nil {
		o.PaidAt = t.PaidAt
	}
	o.UpdatedAt = s.Now()
	cp := *o
	return &cp, nil
}

// SetExternalPaymentID records the gateway session.
func (s *OrderRepositoryStub) SetExternalPaymentID(ctx context.Context, id, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.ExternalPaymentID = &externalID
	return nil
}

// InvoiceRepositoryStub keeps invoices in memory and enforces both unique keys.
type InvoiceRepositoryStub struct {
	CreateFn    func(context.Context, *model.Invoice) error
	SetPDFURLFn func(context.Context, string, string) error

	mu       sync.Mutex
	Invoices map[string]*model.Invoice
	Attempts []string
	next     int
}

// NewInvoiceRepositoryStub returns an empty invoice store.
func NewInvoiceRepositoryStub() *InvoiceRepositoryStub {
	return &InvoiceRepositoryStub{Invoices: make(map[string]*model.Invoice)}
}

// Create stores invoice unless the number or order is taken.
func (s *InvoiceRepositoryStub) Create(ctx context.Context, invoice *model.Invoice) error {
	s.mu.Lock()
	s.Attempts = append(s.Attempts, invoice.InvoiceNumber)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, invoice)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.Invoices {
		if inv.InvoiceNumber == invoice.InvoiceNumber {
			return domainErrors.ErrInvoiceNumberConflict
		}
		if inv.OrderID == invoice.OrderID {
			return domainErrors.ErrAlreadyExists
		}
	}
	if invoice.ID == "" {
		s.next++
		invoice.ID = fmt.Sprintf("invoice-%d", s.next)
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	stored := *invoice
	s.Invoices[invoice.ID] = &stored
	return nil
}

// GetByID returns a stored invoice.
func (s *InvoiceRepositoryStub) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.Invoices[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

// GetByOrderID returns the invoice for orderID.
func (s *InvoiceRepositoryStub) GetByOrderID(ctx context.Context, orderID string) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.Invoices {
		if inv.OrderID == orderID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// SetPDFURL records the rendered document location.
func (s *InvoiceRepositoryStub) SetPDFURL(ctx context.Context, id, url string) error {
	if s.SetPDFURLFn != nil {
		return s.SetPDFURLFn(ctx, id, url)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.Invoices[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	inv.PDFURL = &url
	return nil
}

// Count returns the number of stored invoices.
func (s *InvoiceRepositoryStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Invoices)
}

// SubscriptionRepositoryStub keeps subscriptions in memory.
type SubscriptionRepositoryStub struct {
	CloseEndedFn func(context.Context, time.Time) ([]model.Subscription, error)

	mu    sync.Mutex
	Items map[string]*model.Subscription
	next  int
}

// NewSubscriptionRepositoryStub returns an empty subscription store.
func NewSubscriptionRepositoryStub() *SubscriptionRepositoryStub {
	return &SubscriptionRepositoryStub{Items: make(map[string]*model.Subscription)}
}

// Create stores sub unless the user already has an active one.
func (s *SubscriptionRepositoryStub) Create(ctx context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Items {
		if existing.UserID == sub.UserID && existing.Status == model.SubscriptionActive {
			return domainErrors.ErrAlreadyExists
		}
	}
	if sub.ID == "" {
		s.next++
		sub.ID = fmt.Sprintf("sub-%d", s.next)
	}
	stored := *sub
	s.Items[sub.ID] = &stored
	return nil
}

// GetByID returns a stored subscription.
func (s *SubscriptionRepositoryStub) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.Items[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

// GetActiveByUser returns the user's active subscription.
func (s *SubscriptionRepositoryStub) GetActiveByUser(ctx context.Context, userID int64) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.Items {
		if sub.UserID == userID && sub.Status == model.SubscriptionActive {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// MarkCancelAtPeriodEnd flags an active subscription for cancellation.
func (s *SubscriptionRepositoryStub) MarkCancelAtPeriodEnd(ctx context.Context, id string, at time.Time) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.Items[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if sub.Status != model.SubscriptionActive {
		return nil, domainErrors.ErrInvalidState
	}
	sub.CancelAtPeriodEnd = true
	if sub.CancelledAt == nil {
		sub.CancelledAt = &at
	}
	cp := *sub
	return &cp, nil
}

// CloseEnded closes active subscriptions whose period ended.
func (s *SubscriptionRepositoryStub) CloseEnded(ctx context.Context, now time.Time) ([]model.Subscription, error) {
	if s.CloseEndedFn != nil {
		return s.CloseEndedFn(ctx, now)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []model.Subscription
	for _, sub := range s.Items {
		if sub.Status != model.SubscriptionActive || sub.CurrentPeriodEnd.After(now) {
			continue
		}
		if sub.CancelAtPeriodEnd {
			sub.Status = model.SubscriptionCancelled
		} else {
			sub.Status = model.SubscriptionExpired
		}
		closed = append(closed, *sub)
	}
	return closed, nil
}

// CourseRepositoryStub serves a fixed catalog.
type CourseRepositoryStub struct {
	Courses map[int64]*model.Course
}

// GetByID returns the course or not found.
func (s *CourseRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	c, ok := s.Courses[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// EnrollmentRepositoryStub records granted enrollments.
type EnrollmentRepositoryStub struct {
	GrantFn func(context.Context, int64, int64) error

	mu      sync.Mutex
	Granted map[[2]int64]int
}

// NewEnrollmentRepositoryStub returns an empty enrollment store.
func NewEnrollmentRepositoryStub() *EnrollmentRepositoryStub {
	return &EnrollmentRepositoryStub{Granted: make(map[[2]int64]int)}
}

// Grant records the enrollment; a second grant returns ErrAlreadyExists.
func (s *EnrollmentRepositoryStub) Grant(ctx context.Context, userID, courseID int64) error {
	if s.GrantFn != nil {
		return s.GrantFn(ctx, userID, courseID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, courseID}
	s.Granted[key]++
	if s.Granted[key] > 1 {
		return domainErrors.ErrAlreadyExists
	}
	return nil
}

// HasAccess reports whether the pair was granted.
func (s *EnrollmentRepositoryStub) HasAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Granted[[2]int64{userID, courseID}] > 0, nil
}

// SentNotification is a notification captured by NotificationRepositoryStub.
type SentNotification struct {
	UserID       int64
	Notification model.Notification
}

// NotificationRepositoryStub captures sent notifications.
type NotificationRepositoryStub struct {
	SendFn func(context.Context, int64, model.Notification) error

	mu   sync.Mutex
	Sent []SentNotification
}

// Send records n.
func (s *NotificationRepositoryStub) Send(ctx context.Context, userID int64, n model.Notification) error {
	if s.SendFn != nil {
		if err := s.SendFn(ctx, userID, n); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, SentNotification{UserID: userID, Notification: n})
	return nil
}

// Count returns the number of sent notifications.
func (s *NotificationRepositoryStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sent)
}

var (
	_ repository.UserRepository         = (*UserRepositoryStub)(nil)
	_ repository.OrderRepository        = (*OrderRepositoryStub)(nil)
	_ repository.InvoiceRepository      = (*InvoiceRepositoryStub)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionRepositoryStub)(nil)
	_ repository.CourseRepository       = (*CourseRepositoryStub)(nil)
	_ repository.EnrollmentRepository   = (*EnrollmentRepositoryStub)(nil)
	_ repository.NotificationRepository = (*NotificationRepositoryStub)(nil)
)
