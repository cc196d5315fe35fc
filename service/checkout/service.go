package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

const orderIDPrefix = "ord_"

var (
	// ErrEmptyCart rejects submitting a ledger without lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidInput means the snapshot is inconsistent or the vendor is missing.
	ErrInvalidInput = errors.New("checkout: invalid input")
	// ErrUnavailable wraps order store failures.
	ErrUnavailable = errors.New("checkout: unavailable")
)

// Order is what gets persisted for an accepted checkout.
type Order struct {
	ID        string
	VendorID  string
	SessionID string
	Lines     []domain.CartLine
	Total     decimal.Decimal
	ItemCount int
	PlacedAt  time.Time
}

// OrderStore persists accepted orders.
type OrderStore interface {
	SaveOrder(ctx context.Context, order Order) error
}

// Deps wires the checkout service.
type Deps struct {
	Orders OrderStore
	Clock  func() time.Time
	IDs    func() string
	Logger *zap.Logger
}

// Service validates a ledger snapshot and hands it to the order store.
type Service struct {
	orders OrderStore
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewService(deps Deps) (*Service, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := deps.IDs
	if ids == nil {
		ids = func() string { return orderIDPrefix + ulid.Make().String() }
	}
	return &Service{
		orders: deps.Orders,
		now:    func() time.Time { return clock().UTC() },
		newID:  ids,
		logger: logging.OrNop(deps.Logger),
	}, nil
}

// Request identifies what is being checked out.
type Request struct {
	VendorID  string
	SessionID string
	Snapshot  domain.LedgerSnapshot
}

// Submit re-derives the totals from the snapshot lines, persists the order and returns a
// receipt. The ledger itself is not touched; clearing it is up to the caller.
func (s *Service) Submit(ctx context.Context, req Request) (domain.OrderReceipt, error) {
	if strings.TrimSpace(req.VendorID) == "" {
		return domain.OrderReceipt{}, fmt.Errorf("%w: vendor is required", ErrInvalidInput)
	}
	if len(req.Snapshot.Lines) == 0 {
		return domain.OrderReceipt{}, ErrEmptyCart
	}

	total := decimal.Zero
	count := 0
	for _, l := range req.Snapshot.Lines {
		if l.Quantity < 1 || l.UnitPrice < 0 {
			return domain.OrderReceipt{}, fmt.Errorf("%w: line %s has quantity %d price %v", ErrInvalidInput, l.Key(), l.Quantity, l.UnitPrice)
		}
		total = total.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}
	if count != req.Snapshot.ItemCount || !matchesTotal(total, req.Snapshot.TotalPrice) {
		return domain.OrderReceipt{}, fmt.Errorf("%w: snapshot totals do not match its lines", ErrInvalidInput)
	}

	order := Order{
		ID:        s.newID(),
		VendorID:  req.VendorID,
		SessionID: req.SessionID,
		Lines:     append([]domain.CartLine(nil), req.Snapshot.Lines...),
		Total:     total,
		ItemCount: count,
		PlacedAt:  s.now(),
	}
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		s.logger.Error("order persist failed",
			zap.String("orderId", order.ID),
			zap.String("vendorId", order.VendorID),
			zap.Error(err),
		)
		return domain.OrderReceipt{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.logger.Info("order placed",
		zap.String("orderId", order.ID),
		zap.String("vendorId", order.VendorID),
		zap.String("total", total.String()),
		zap.Int("items", count),
	)
	return domain.OrderReceipt{
		OrderID:    order.ID,
		VendorID:   order.VendorID,
		TotalPrice: total.InexactFloat64(),
		ItemCount:  count,
		PlacedAt:   order.PlacedAt,
	}, nil
}

// totalTolerance absorbs the float rounding of a snapshot total; prices carry at most six
// decimals in storage.
var totalTolerance = decimal.New(1, -6)

func matchesTotal(exact decimal.Decimal, reported float64) bool {
	return exact.Sub(decimal.NewFromFloat(reported)).Abs().LessThanOrEqual(totalTolerance)
}
