package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnknownSession is returned when refunding a session the gateway never issued.
var ErrUnknownSession = errors.New("unknown checkout session")

// CheckoutRequest describes the payment a buyer is about to make.
type CheckoutRequest struct {
	OrderID     string
	UserID      int64
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// Gateway opens and refunds payment sessions with an external provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	Refund(ctx context.Context, sessionID string, amount decimal.Decimal) error
}

// MockGateway accepts every checkout and remembers issued sessions.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]decimal.Decimal
	logger   *slog.Logger
}

// NewMockGateway returns an in-memory gateway.
func NewMockGateway(logger *slog.Logger) *MockGateway {
	return &MockGateway{sessions: make(map[string]decimal.Decimal), logger: logger}
}

// CreateCheckoutSession issues a session id for req.
func (g *MockGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("checkout amount must be positive, got %s", req.Amount)
	}
	id := "cs_mock_" + uuid.NewString()

	g.mu.Lock()
	g.sessions[id] = req.Amount
	g.mu.Unlock()

	g.logger.Debug("mock checkout session created",
		slog.String("order_id", req.OrderID),
		slog.String("session_id", id),
		slog.String("amount", req.Amount.String()),
	)
	return id, nil
}

// Refund returns up to the captured amount of a session.
func (g *MockGateway) Refund(_ context.Context, sessionID string, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	captured, ok := g.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if amount.GreaterThan(captured) {
		return fmt.Errorf("refund %s exceeds captured %s", amount, captured)
	}
	g.sessions[sessionID] = captured.Sub(amount)
	return nil
}
