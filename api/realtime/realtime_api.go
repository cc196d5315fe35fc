package realtime

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront.GO/api"
	"storefront.GO/config"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/pricing"
)

func init() {
	api.RegisterModule(RegisterRealtimeRoutes)
}

// QuoteResponse is the live price and availability of one product variant at a quantity.
type QuoteResponse struct {
	VendorID    string             `json:"vendor_id"`
	ProductID   string             `json:"product_id"`
	VariantKey  string             `json:"variant_key,omitempty"`
	Quantity    int                `json:"quantity"`
	UnitPrice   float64            `json:"unit_price"`
	LineTotal   float64            `json:"line_total"`
	Available   int                `json:"available"`
	StockStatus domain.StockStatus `json:"stock_status"`
	InCart      int                `json:"in_cart"`
}

// getSigningKey returns the shared key storefront clients sign their session id with.
func getSigningKey() string {
	return config.GetEnv("QUOTE_SIGNING_KEY", "")
}

// verifySessionSignature validates HMAC-SHA256 signature using constant-time comparison
func verifySessionSignature(sessionID, signature, key string) bool {
	if key == "" || sessionID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(sessionID))
	expected := mac.Sum(nil)
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sig)
}

// RegisterRealtimeRoutes sets up the quote endpoint used by product pages while a shopper
// changes quantity.
func RegisterRealtimeRoutes(apiGroup *echo.Group, deps *api.Deps) {
	if deps == nil || deps.Store == nil {
		return
	}
	resolver := pricing.NewResolver(deps.Logger)
	g := apiGroup.Group("/realtime")

	// GET /api/realtime/quote?vendor=&product=&variant=&qty=
	g.GET("/quote", func(c echo.Context) error {
		start := time.Now()

		sessionID := c.Request().Header.Get("X-Cart-Session")
		if key := getSigningKey(); key != "" && !verifySessionSignature(sessionID, c.Request().Header.Get("X-Cart-Sig"), key) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}

		vendorID, productID := c.QueryParam("vendor"), c.QueryParam("product")
		if vendorID == "" || productID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor and product required"})
		}
		qty := 1
		if raw := c.QueryParam("qty"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "qty must be a positive integer"})
			}
			qty = n
		}
		variant := c.QueryParam("variant")

		var product domain.Product
		var found bool
		inCart := 0

		// Catalog lookup and cart lookup run in parallel
		eg, ctx := errgroup.WithContext(c.Request().Context())
		eg.Go(func() error {
			cat, err := deps.Store.Load(ctx, vendorID)
			if err != nil {
				return err
			}
			product, found = cat.Find(productID)
			return nil
		})
		eg.Go(func() error {
			if deps.Carts == nil || sessionID == "" {
				return nil
			}
			if ledger, ok := deps.Carts.Peek(sessionID); ok {
				for _, l := range ledger.Lines() {
					if l.ProductID == productID && (l.VariantKey == variant || l.VariantKey == "") {
						inCart += l.Quantity
					}
				}
			}
			return nil
		})
		err := eg.Wait()

		duration := time.Since(start).Milliseconds()
		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))

		if errors.Is(err, catalogService.ErrVendorNotFound) || (err == nil && !found) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found", "request_duration_ms": duration})
		}
		if err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
		}

		unit, err := resolver.Resolve(product, qty)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if !product.Stock.IsVariant() {
			variant = ""
		}
		available := product.Stock.Available(variant)
		return c.JSON(http.StatusOK, QuoteResponse{
			VendorID:    vendorID,
			ProductID:   productID,
			VariantKey:  variant,
			Quantity:    qty,
			UnitPrice:   unit,
			LineTotal:   decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64(),
			Available:   available,
			StockStatus: domain.StatusOf(available),
			InCart:      inCart,
		})
	})
}
