package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront.GO/api"
	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
)

func init() {
	api.RegisterModule(RegisterCatalogRoutes)
}

// browserFor returns the shopper's browsing state when the request names a session.
func browserFor(c echo.Context, deps *api.Deps) *catalogService.Browser {
	if deps.Browsers == nil {
		return nil
	}
	id := strings.TrimSpace(c.Request().Header.Get(api.SessionHeader))
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return deps.Browsers.For(id, c.Param("vendor"))
}

// RegisterCatalogRoutes exposes vendor catalog listing, facet summaries and reloads.
func RegisterCatalogRoutes(apiGroup *echo.Group, deps *api.Deps) {
	if deps == nil || deps.Store == nil || deps.Engine == nil {
		return
	}
	logger := logging.OrNop(deps.Logger)
	g := apiGroup.Group("/catalog")

	// load returns ok=false once it has written an error response.
	load := func(c echo.Context) (catalogService.Catalog, bool, error) {
		cat, err := deps.Store.Load(c.Request().Context(), c.Param("vendor"))
		if err == nil {
			return cat, true, nil
		}
		if errors.Is(err, catalogService.ErrVendorNotFound) {
			return cat, false, c.JSON(http.StatusNotFound, echo.Map{"error": "vendor not found"})
		}
		logger.Error("catalog load failed", zap.String("vendorId", c.Param("vendor")), zap.Error(err))
		return cat, false, c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog unavailable"})
	}

	// GET /api/catalog/:vendor/products?q=&category=&stock=&min_price=&max_price=&facet.<name>=&sort=&dir=&page=&page_size=
	g.GET("/:vendor/products", func(c echo.Context) error {
		start := time.Now()
		cat, ok, err := load(c)
		if !ok {
			return err
		}
		q := ParseQuery(c.QueryParams())
		var page domain.Page
		if b := browserFor(c, deps); b != nil {
			// A changed filter, sort or page size restarts the shopper at page 1.
			b.Apply(q)
			page = b.Page(cat)
		} else {
			page = deps.Engine.Query(cat, q)
		}
		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
		c.Response().Header().Set("X-Catalog-Version", strconv.FormatUint(cat.Version, 10))
		return c.JSON(http.StatusOK, page)
	})

	// GET /api/catalog/:vendor/products/:id
	g.GET("/:vendor/products/:id", func(c echo.Context) error {
		cat, ok, err := load(c)
		if !ok {
			return err
		}
		p, found := cat.Find(c.Param("id"))
		if !found {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusOK, p)
	})

	// GET /api/catalog/:vendor/facets: counts per category, availability and facet value
	g.GET("/:vendor/facets", func(c echo.Context) error {
		cat, ok, err := load(c)
		if !ok {
			return err
		}
		return c.JSON(http.StatusOK, catalogService.Summarize(cat.Products, deps.Engine.Filter().Facets()))
	})

	// POST /api/catalog/:vendor/reload: refetch the snapshot from the backing source
	g.POST("/:vendor/reload", func(c echo.Context) error {
		vendorID := c.Param("vendor")
		cat, err := deps.Store.Reload(c.Request().Context(), vendorID)
		if err != nil {
			if errors.Is(err, catalogService.ErrVendorNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "vendor not found"})
			}
			logger.Error("catalog reload failed", zap.String("vendorId", vendorID), zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
		}
		logger.Info("catalog reloaded", zap.String("vendorId", vendorID), zap.Uint64("version", cat.Version), zap.Int("products", len(cat.Products)))
		return c.JSON(http.StatusOK, echo.Map{"vendor_id": vendorID, "version": cat.Version, "products": len(cat.Products)})
	})
}
