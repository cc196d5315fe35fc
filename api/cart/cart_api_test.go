package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront.GO/api"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
	cartService "storefront.GO/service/cart"
	checkoutService "storefront.GO/service/checkout"
)

type memoryOrders struct{ saved []checkoutService.Order }

func (m *memoryOrders) SaveOrder(_ context.Context, o checkoutService.Order) error {
	m.saved = append(m.saved, o)
	return nil
}

type harness struct {
	e       *echo.Echo
	store   *catalogService.Store
	orders  *memoryOrders
	carts   *cartService.Sessions
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	src := catalogService.StaticSource{"v1": {
		{ID: "tee", Name: "Tee", Category: "Apparel", BasePrice: 500,
			Stock: domain.VariantStock(map[string]int{"S": 2, "M": 0})},
		{ID: "chai", Name: "Chai", Category: "Drinks", BasePrice: 30, Stock: domain.ScalarStock(50),
			Tiers: []domain.PricingTier{{MinQuantity: 10, Price: 25}}},
	}}
	orders := &memoryOrders{}
	checkout, err := checkoutService.NewService(checkoutService.Deps{Orders: orders})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	store := catalogService.NewStore(src, nil, nil)
	carts := cartService.NewSessions(nil, 0, nil, nil)
	deps := &api.Deps{
		Store:    store,
		Carts:    carts,
		Checkout: checkout,
	}
	e := echo.New()
	RegisterCartRoutes(e.Group("/api"), deps)
	return &harness{e: e, store: store, orders: orders, carts: carts}
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if h.session != "" {
		req.Header.Set(SessionHeader, h.session)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	if id := rec.Header().Get(SessionHeader); id != "" {
		h.session = id
	}
	return rec
}

func snapshotOf(t *testing.T, rec *httptest.ResponseRecorder) domain.LedgerSnapshot {
	t.Helper()
	var snap domain.LedgerSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, rec.Body.String())
	}
	return snap
}

func TestCartFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"chai","quantity":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d body %s", rec.Code, rec.Body.String())
	}
	if h.session == "" {
		t.Fatal("no session id issued")
	}

	rec = h.do(t, http.MethodPut, "/api/cart/items", `{"product_id":"chai","quantity":10}`)
	snap := snapshotOf(t, rec)
	if snap.TotalPrice != 250 || snap.ItemCount != 10 {
		t.Errorf("after tier = %+v", snap)
	}

	rec = h.do(t, http.MethodGet, "/api/cart", "")
	if got := snapshotOf(t, rec); len(got.Lines) != 1 {
		t.Errorf("lines = %+v", got.Lines)
	}

	rec = h.do(t, http.MethodPost, "/api/cart/checkout", `{"vendor_id":"v1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d body %s", rec.Code, rec.Body.String())
	}
	var receipt domain.OrderReceipt
	_ = json.Unmarshal(rec.Body.Bytes(), &receipt)
	if receipt.TotalPrice != 250 || len(h.orders.saved) != 1 {
		t.Errorf("receipt = %+v saved %d", receipt, len(h.orders.saved))
	}

	if got := snapshotOf(t, h.do(t, http.MethodGet, "/api/cart", "")); len(got.Lines) != 0 {
		t.Errorf("cart not cleared: %+v", got)
	}
}

func TestReadsDoNotOpenSessions(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.session = ""
		rec := h.do(t, http.MethodGet, "/api/cart", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if snap := snapshotOf(t, rec); len(snap.Lines) != 0 || snap.ItemCount != 0 {
			t.Errorf("fresh cart = %+v", snap)
		}
		if _, ok := h.carts.Peek(h.session); ok {
			t.Errorf("GET opened session %s", h.session)
		}
	}
	if rec := h.do(t, http.MethodDelete, "/api/cart", ""); rec.Code != http.StatusOK {
		t.Errorf("clearing an unknown cart = %d", rec.Code)
	}
	if _, ok := h.carts.Peek(h.session); ok {
		t.Error("DELETE opened a session")
	}
}

func TestScalarLineAcceptsVariantSpelling(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"chai","variant_key":"M","quantity":2}`); rec.Code != http.StatusOK {
		t.Fatalf("add status = %d body %s", rec.Code, rec.Body.String())
	}
	rec := h.do(t, http.MethodPut, "/api/cart/items", `{"product_id":"chai","variant_key":"M","quantity":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d body %s", rec.Code, rec.Body.String())
	}
	if snap := snapshotOf(t, rec); snap.ItemCount != 3 {
		t.Errorf("after put = %+v", snap)
	}
	if rec := h.do(t, http.MethodDelete, "/api/cart/items?product_id=chai&variant_key=M", ""); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestStockRejectionsAreConflicts(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"tee","variant_key":"M","quantity":1}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("out of stock status = %d", rec.Code)
	}

	h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"tee","variant_key":"S","quantity":2}`)
	rec = h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"tee","variant_key":"S","quantity":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("insufficient status = %d", rec.Code)
	}
	var body struct {
		Requested int `json:"requested"`
		Available int `json:"available"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Requested != 3 || body.Available != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestCheckoutRepricesAgainstLiveCatalog(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"tee","variant_key":"S","quantity":2}`)

	h.store.Replace("v1", []domain.Product{
		{ID: "tee", Name: "Tee", Category: "Apparel", BasePrice: 500, Stock: domain.VariantStock(map[string]int{"S": 1})},
	})
	rec := h.do(t, http.MethodPost, "/api/cart/checkout", `{"vendor_id":"v1"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if len(h.orders.saved) != 0 {
		t.Error("order saved despite stock shortfall")
	}
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPost, "/api/cart/items", `{"product_id":"chai"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"chai","quantity":-2}`, http.StatusBadRequest},
		{http.MethodPost, "/api/cart/items", `{"vendor_id":"v1","product_id":"ghost"}`, http.StatusNotFound},
		{http.MethodPost, "/api/cart/items", `{"vendor_id":"nobody","product_id":"chai"}`, http.StatusNotFound},
		{http.MethodPut, "/api/cart/items", `{"product_id":"chai","quantity":3}`, http.StatusNotFound},
		{http.MethodDelete, "/api/cart/items?product_id=chai", "", http.StatusNotFound},
		{http.MethodPost, "/api/cart/checkout", `{"vendor_id":"v1"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := h.do(t, tc.method, tc.target, tc.body); rec.Code != tc.want {
			t.Errorf("%s %s %s: status = %d, want %d", tc.method, tc.target, tc.body, rec.Code, tc.want)
		}
	}
}
