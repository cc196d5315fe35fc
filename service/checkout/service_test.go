package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront.GO/model/domain"
	"storefront.GO/service/cart"
)

type memoryOrders struct {
	saved []Order
	err   error
}

func (m *memoryOrders) SaveOrder(_ context.Context, o Order) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, o)
	return nil
}

func filledLedger(t *testing.T) *cart.Ledger {
	t.Helper()
	l := cart.NewLedger(cart.Options{})
	for _, p := range []domain.Product{
		{ID: "p1", Name: "Thali", BasePrice: 100, Stock: domain.ScalarStock(10)},
		{ID: "p2", Name: "Lassi", BasePrice: 50, Stock: domain.ScalarStock(10)},
	} {
		qty := 2
		if p.ID == "p2" {
			qty = 1
		}
		if _, err := l.AddOrIncrement(p, "", qty); err != nil {
			t.Fatalf("AddOrIncrement(%s): %v", p.ID, err)
		}
	}
	return l
}

func TestSubmitPersistsOrder(t *testing.T) {
	store := &memoryOrders{}
	placed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	svc, err := NewService(Deps{Orders: store, Clock: func() time.Time { return placed }})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	receipt, err := svc.Submit(context.Background(), Request{VendorID: "v1", SessionID: "s1", Snapshot: filledLedger(t).Snapshot()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.TotalPrice != 250 || receipt.ItemCount != 3 {
		t.Errorf("receipt = %+v, want 250 / 3", receipt)
	}
	if !strings.HasPrefix(receipt.OrderID, orderIDPrefix) {
		t.Errorf("order id %q lacks prefix", receipt.OrderID)
	}
	if !receipt.PlacedAt.Equal(placed) || receipt.PlacedAt.Location() != time.UTC {
		t.Errorf("PlacedAt = %v, want %v in UTC", receipt.PlacedAt, placed)
	}
	if len(store.saved) != 1 || store.saved[0].SessionID != "s1" || len(store.saved[0].Lines) != 2 {
		t.Errorf("saved = %+v", store.saved)
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	svc, _ := NewService(Deps{Orders: &memoryOrders{}})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, Request{VendorID: "v1"}); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("empty err = %v", err)
	}
	if _, err := svc.Submit(ctx, Request{Snapshot: filledLedger(t).Snapshot()}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing vendor err = %v", err)
	}
	snap := filledLedger(t).Snapshot()
	snap.TotalPrice = 1
	if _, err := svc.Submit(ctx, Request{VendorID: "v1", Snapshot: snap}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("tampered total err = %v", err)
	}
}

func TestSubmitAcceptsLedgerTotalsWithLongPrices(t *testing.T) {
	svc, _ := NewService(Deps{Orders: &memoryOrders{}})
	prices := []float64{0.1, 0.3333333333333333, 19.99, 0.000001, 1234.567891, 2.0 / 3.0, 99999.99, 0.7}
	for _, p1 := range prices {
		for _, p2 := range prices {
			l := cart.NewLedger(cart.Options{})
			if _, err := l.AddOrIncrement(domain.Product{ID: "a", BasePrice: p1, Stock: domain.ScalarStock(100)}, "", 7); err != nil {
				t.Fatalf("AddOrIncrement(a): %v", err)
			}
			if _, err := l.AddOrIncrement(domain.Product{ID: "b", BasePrice: p2, Stock: domain.ScalarStock(100)}, "", 13); err != nil {
				t.Fatalf("AddOrIncrement(b): %v", err)
			}
			if _, err := svc.Submit(context.Background(), Request{VendorID: "v1", Snapshot: l.Snapshot()}); err != nil {
				t.Errorf("Submit with prices %v and %v: %v", p1, p2, err)
			}
		}
	}

	snap := filledLedger(t).Snapshot()
	snap.TotalPrice += 0.01
	if _, err := svc.Submit(context.Background(), Request{VendorID: "v1", Snapshot: snap}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("total off by a cent err = %v", err)
	}
}

func TestSubmitWrapsStoreFailure(t *testing.T) {
	svc, _ := NewService(Deps{Orders: &memoryOrders{err: errors.New("db down")}})
	_, err := svc.Submit(context.Background(), Request{VendorID: "v1", Snapshot: filledLedger(t).Snapshot()})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(Deps{}); err == nil {
		t.Error("NewService without store succeeded")
	}
}
