package cart

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront.GO/api"
	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
	cartService "storefront.GO/service/cart"
	checkoutService "storefront.GO/service/checkout"
)

// SessionHeader carries the cart session id in both directions.
const SessionHeader = api.SessionHeader

func init() {
	api.RegisterModule(RegisterCartRoutes)
}

type itemRequest struct {
	VendorID   string `json:"vendor_id"`
	ProductID  string `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Quantity   int    `json:"quantity"`
}

type checkoutRequest struct {
	VendorID string `json:"vendor_id"`
}

// sessionID returns the caller's session, minting a new one when the header is missing or
// not a UUID. The id is echoed back on the response.
func sessionID(c echo.Context) string {
	id := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Response().Header().Set(SessionHeader, id)
	return id
}

func emptySnapshot() domain.LedgerSnapshot {
	return domain.LedgerSnapshot{Lines: []domain.CartLine{}}
}

// errorStatus maps cart and checkout errors onto HTTP statuses.
func errorStatus(err error) int {
	var stockErr *cartService.StockError
	switch {
	case errors.As(err, &stockErr), errors.Is(err, cartService.ErrMissingProduct):
		return http.StatusConflict
	case errors.Is(err, cartService.ErrLineNotFound), errors.Is(err, catalogService.ErrVendorNotFound):
		return http.StatusNotFound
	case errors.Is(err, cartService.ErrInvalidQuantity),
		errors.Is(err, checkoutService.ErrEmptyCart),
		errors.Is(err, checkoutService.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, checkoutService.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorBody(err error) echo.Map {
	body := echo.Map{"error": err.Error()}
	var stockErr *cartService.StockError
	if errors.As(err, &stockErr) {
		body["requested"] = stockErr.Requested
		body["available"] = stockErr.Available
	}
	return body
}

// RegisterCartRoutes exposes the session cart ledger and checkout.
func RegisterCartRoutes(apiGroup *echo.Group, deps *api.Deps) {
	if deps == nil || deps.Carts == nil || deps.Store == nil {
		return
	}
	logger := logging.OrNop(deps.Logger)
	g := apiGroup.Group("/cart")

	// GET /api/cart: read-only, an unknown session gets an empty cart without opening one
	g.GET("", func(c echo.Context) error {
		ledger, ok := deps.Carts.Peek(sessionID(c))
		if !ok {
			return c.JSON(http.StatusOK, emptySnapshot())
		}
		return c.JSON(http.StatusOK, ledger.Snapshot())
	})

	// DELETE /api/cart
	g.DELETE("", func(c echo.Context) error {
		ledger, ok := deps.Carts.Peek(sessionID(c))
		if !ok {
			return c.JSON(http.StatusOK, emptySnapshot())
		}
		ledger.Clear()
		return c.JSON(http.StatusOK, ledger.Snapshot())
	})

	// POST /api/cart/items: add quantity units of a product variant
	g.POST("/items", func(c echo.Context) error {
		var body itemRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if body.VendorID == "" || body.ProductID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor_id and product_id are required"})
		}
		if body.Quantity == 0 {
			body.Quantity = 1
		}
		cat, err := deps.Store.Load(c.Request().Context(), body.VendorID)
		if err != nil {
			return c.JSON(errorStatus(err), errorBody(err))
		}
		product, ok := cat.Find(body.ProductID)
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}

		ledger := deps.Carts.Get(sessionID(c))
		line, err := ledger.AddOrIncrement(product, body.VariantKey, body.Quantity)
		if err != nil {
			return c.JSON(errorStatus(err), errorBody(err))
		}
		return c.JSON(http.StatusOK, echo.Map{"line": line, "cart": ledger.Snapshot()})
	})

	// PUT /api/cart/items: set a line's quantity; zero removes it
	g.PUT("/items", func(c echo.Context) error {
		var body itemRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		ledger, ok := deps.Carts.Peek(sessionID(c))
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": cartService.ErrLineNotFound.Error()})
		}
		key := domain.LineKey{ProductID: body.ProductID, VariantKey: body.VariantKey}
		if _, err := ledger.SetQuantity(key, body.Quantity); err != nil {
			return c.JSON(errorStatus(err), errorBody(err))
		}
		return c.JSON(http.StatusOK, ledger.Snapshot())
	})

	// DELETE /api/cart/items?product_id=&variant_key=
	g.DELETE("/items", func(c echo.Context) error {
		ledger, ok := deps.Carts.Peek(sessionID(c))
		key := domain.LineKey{ProductID: c.QueryParam("product_id"), VariantKey: c.QueryParam("variant_key")}
		if !ok || !ledger.Remove(key) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "line not found"})
		}
		return c.JSON(http.StatusOK, ledger.Snapshot())
	})

	// POST /api/cart/checkout: reprice against the live catalog, place the order, clear the cart
	g.POST("/checkout", func(c echo.Context) error {
		if deps.Checkout == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "checkout not configured"})
		}
		var body checkoutRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		ctx := c.Request().Context()
		id := sessionID(c)
		ledger, ok := deps.Carts.Peek(id)
		if !ok {
			return c.JSON(errorStatus(checkoutService.ErrEmptyCart), errorBody(checkoutService.ErrEmptyCart))
		}

		cat, err := deps.Store.Load(ctx, body.VendorID)
		if err != nil {
			return c.JSON(errorStatus(err), errorBody(err))
		}
		reqLogger := logging.FromContextOr(ctx, logger)
		if err := ledger.Reprice(cat.Find); err != nil {
			reqLogger.Info("checkout blocked by reprice", zap.String("ledgerId", id), zap.Error(err))
			return c.JSON(errorStatus(err), echo.Map{"error": err.Error(), "cart": ledger.Snapshot()})
		}

		receipt, err := deps.Checkout.Submit(ctx, checkoutService.Request{
			VendorID:  body.VendorID,
			SessionID: id,
			Snapshot:  ledger.Snapshot(),
		})
		if err != nil {
			reqLogger.Warn("checkout failed", zap.String("ledgerId", id), zap.Error(err))
			return c.JSON(errorStatus(err), errorBody(err))
		}
		reqLogger.Info("order placed", zap.String("orderId", receipt.OrderID), zap.String("vendorId", body.VendorID))
		ledger.Clear()
		return c.JSON(http.StatusCreated, receipt)
	})
}
