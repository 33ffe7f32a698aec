package test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	"github.com/polkiloo/coursemart/internal/adapter/pdf"
	"github.com/polkiloo/coursemart/internal/cache"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

// JobQueueStub records enqueued jobs.
type JobQueueStub struct {
	EnqueueFn func(context.Context, model.Job) error

	mu   sync.Mutex
	Jobs []model.Job
}

// Enqueue records job unless the override fails.
func (s *JobQueueStub) Enqueue(ctx context.Context, job model.Job) error {
	if s.EnqueueFn != nil {
		if err := s.EnqueueFn(ctx, job); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Jobs = append(s.Jobs, job)
	return nil
}

// Kinds returns the kinds of recorded jobs in order.
func (s *JobQueueStub) Kinds() []model.JobKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]model.JobKind, 0, len(s.Jobs))
	for _, j := range s.Jobs {
		kinds = append(kinds, j.Kind)
	}
	return kinds
}

// ObjectStoreStub keeps uploaded objects in memory.
type ObjectStoreStub struct {
	PutFn    func(context.Context, string, string, []byte) (string, error)
	DeleteFn func(context.Context, string) error

	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

// NewObjectStoreStub returns an empty object store.
func NewObjectStoreStub() *ObjectStoreStub {
	return &ObjectStoreStub{Objects: make(map[string][]byte)}
}

// Put stores body and returns a fake URL.
func (s *ObjectStoreStub) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if s.PutFn != nil {
		return s.PutFn(ctx, key, contentType, body)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = body
	return "https://files.test/" + key, nil
}

// Delete removes key.
func (s *ObjectStoreStub) Delete(ctx context.Context, key string) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

// GatewayStub returns a fixed checkout session.
type GatewayStub struct {
	CheckoutFn func(context.Context, gateway.CheckoutRequest) (string, error)
	RefundFn   func(context.Context, string, decimal.Decimal) error
}

// CreateCheckoutSession delegates to the override or returns "cs_test".
func (s GatewayStub) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, req)
	}
	return "cs_test", nil
}

// Refund delegates to the override.
func (s GatewayStub) Refund(ctx context.Context, sessionID string, amount decimal.Decimal) error {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, sessionID, amount)
	}
	return nil
}

// RendererStub returns a tiny PDF-looking payload.
type RendererStub struct {
	RenderFn func(pdf.InvoiceDocument) ([]byte, error)
}

// RenderInvoice delegates to the override or echoes the invoice number.
func (s RendererStub) RenderInvoice(doc pdf.InvoiceDocument) ([]byte, error) {
	if s.RenderFn != nil {
		return s.RenderFn(doc)
	}
	return []byte("%PDF-" + doc.Invoice.InvoiceNumber), nil
}

// NumbererStub hands out predefined invoice numbers, then generated ones.
type NumbererStub struct {
	mu      sync.Mutex
	Numbers []string
	Err     error
	calls   int
}

// Next returns the next configured number.
func (s *NumbererStub) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.calls++
	if s.calls <= len(s.Numbers) {
		return s.Numbers[s.calls-1], nil
	}
	return fmt.Sprintf("INV-2026-%08X", s.calls), nil
}

// Calls returns how many numbers were requested.
func (s *NumbererStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// CacheStoreStub is an in-memory cache.Store.
type CacheStoreStub struct {
	DelErr error
	// DelFailures fails that many Del calls with ErrStub before DelErr applies.
	DelFailures int

	mu   sync.Mutex
	Data map[string][]byte
	Dels []string
}

// NewCacheStoreStub returns an empty cache store.
func NewCacheStoreStub() *CacheStoreStub {
	return &CacheStoreStub{Data: make(map[string][]byte)}
}

// Get returns the cached bytes or cache.ErrMiss.
func (s *CacheStoreStub) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

// Set stores value ignoring ttl.
func (s *CacheStoreStub) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data[key] = value
	return nil
}

// Del removes keys.
func (s *CacheStoreStub) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dels = append(s.Dels, keys...)
	if s.DelFailures > 0 {
		s.DelFailures--
		return ErrStub
	}
	if s.DelErr != nil {
		return s.DelErr
	}
	for _, k := range keys {
		delete(s.Data, k)
	}
	return nil
}

// Has reports whether key is cached.
func (s *CacheStoreStub) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Data[key]
	return ok
}

// ErrStub is a generic failure used by tests.
var ErrStub = errors.New("stub failure")

var (
	_ gateway.Gateway = GatewayStub{}
	_ pdf.Renderer    = RendererStub{}
	_ cache.Store     = (*CacheStoreStub)(nil)
)
