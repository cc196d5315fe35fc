package stock

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront.GO/api"
	"storefront.GO/core/logging"
	catalogRepo "storefront.GO/model/repository/catalog"
)

func init() {
	api.RegisterModule(RegisterStockRoutes)
}

// RegisterStockRoutes exposes the bulk stock import. It needs the database and the catalog
// store; nothing is mounted without them.
func RegisterStockRoutes(apiGroup *echo.Group, deps *api.Deps) {
	if deps == nil || deps.DB == nil || deps.Store == nil {
		return
	}
	logger := logging.OrNop(deps.Logger)
	repo := catalogRepo.NewCatalogRepository(deps.DB, nil, logger)
	g := apiGroup.Group("/stock")

	// POST /api/stock/:vendor/import: bulk stock upsert (auth required via /api middleware)
	g.POST("/:vendor/import", func(c echo.Context) error {
		start := time.Now()
		vendorID := c.Param("vendor")

		var body struct {
			Items []catalogRepo.StockInput `json:"items"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if len(body.Items) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "items array is required and must not be empty"})
		}

		ctx := c.Request().Context()
		res, err := repo.ImportStock(ctx, vendorID, body.Items)
		duration := time.Since(start).Milliseconds()
		if err != nil {
			logger.Error("stock import failed", zap.String("vendorId", vendorID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error(), "request_duration_ms": duration})
		}

		var version uint64
		if res.Imported > 0 {
			cat, err := deps.Store.RefreshStock(ctx, vendorID)
			if err != nil {
				logger.Warn("stock imported but snapshot refresh failed", zap.String("vendorId", vendorID), zap.Error(err))
			} else {
				version = cat.Version
			}
		}
		duration = time.Since(start).Milliseconds()

		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
		return c.JSON(http.StatusOK, echo.Map{
			"imported":            res.Imported,
			"skipped":             res.Skipped,
			"warnings":            res.Warnings,
			"catalog_version":     version,
			"request_duration_ms": duration,
		})
	})
}
