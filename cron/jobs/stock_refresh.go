package jobs

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront.GO/core/logging"
	"storefront.GO/cron"
	catalogService "storefront.GO/service/catalog"
)

// StockRefreshJob is the registry name of the stock refresh job.
const StockRefreshJob = "catalog_stock_refresh"

const (
	refreshTimeout     = 2 * time.Minute
	refreshConcurrency = 4
)

// StockRefresher is the part of catalog.Store the job needs.
type StockRefresher interface {
	RefreshStock(ctx context.Context, vendorID string) (catalogService.Catalog, error)
	Vendors() []string
}

// RefreshStock refreshes the stock of each vendor's snapshot, a few vendors at a time. Every
// vendor is attempted; the first failure is returned.
func RefreshStock(ctx context.Context, store StockRefresher, vendors []string, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, vendorID := range vendors {
		vendorID := vendorID
		g.Go(func() error {
			start := time.Now()
			cat, err := store.RefreshStock(ctx, vendorID)
			if err != nil {
				logger.Error("stock refresh failed", zap.String("vendorId", vendorID), zap.Error(err))
				return err
			}
			logger.Info("stock refreshed",
				zap.String("vendorId", vendorID),
				zap.Uint64("version", cat.Version),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		})
	}
	return g.Wait()
}

// RegisterStockRefresh registers the stock refresh job. Vendors named on the command line
// win over configured ones; with neither, every loaded vendor is refreshed.
func RegisterStockRefresh(store StockRefresher, configured []string, schedule string, logger *zap.Logger) {
	logger = logging.OrNop(logger)
	cron.Register(StockRefreshJob, schedule, func(args ...string) {
		vendors := targets(store, configured, args)
		if len(vendors) == 0 {
			logger.Debug("stock refresh skipped, no vendors")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := RefreshStock(ctx, store, vendors, logger); err != nil {
			logger.Warn("stock refresh finished with errors", zap.Error(err))
		}
	})
}

func targets(store StockRefresher, configured, args []string) []string {
	switch {
	case len(args) > 0:
		return args
	case len(configured) > 0:
		return configured
	}
	vendors := store.Vendors()
	sort.Strings(vendors)
	return vendors
}
