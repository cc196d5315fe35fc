package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront.GO/api"
	"storefront.GO/config"
	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
	"storefront.GO/migrations"
	catalogRepo "storefront.GO/model/repository/catalog"
	orderRepo "storefront.GO/model/repository/order"
	searchRepo "storefront.GO/model/repository/search"
	cartService "storefront.GO/service/cart"
	catalogService "storefront.GO/service/catalog"
	checkoutService "storefront.GO/service/checkout"
	"storefront.GO/service/stock"
)

// Options adjusts New. Zero values read everything from the environment.
type Options struct {
	Logger *zap.Logger
	// DB replaces the connection built from DB_DRIVER.
	DB *gorm.DB
	// Migrate brings the schema up before anything reads it.
	Migrate bool
}

// App holds the wired services of one process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client
	Elastic *elasticsearch.Client

	Catalog *catalogRepo.CatalogRepository
	Search  *searchRepo.SearchRepository
	Orders  *orderRepo.OrderRepository
	Source  catalogService.Source

	Store    *catalogService.Store
	Engine   *catalogService.Engine
	Browsers *catalogService.Browsers
	Events   *cartService.Dispatcher
	Carts    *cartService.Sessions
	Checkout *checkoutService.Service

	ownsDB bool
	stops  []func()
}

// New connects the backends and builds the catalog, cart and checkout services.
func New(ctx context.Context, opts Options) (*App, error) {
	config.LoadAppConfig()
	cfg := config.AppConfig
	logger := logging.OrNop(opts.Logger)

	a := &App{Config: cfg, Logger: logger, DB: opts.DB}
	if a.DB == nil {
		db, err := config.NewDB()
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		a.DB = db
		a.ownsDB = true
	}
	if opts.Migrate {
		if err := migrations.Up(a.DB, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	config.InitRedis()
	if config.PingRedis(ctx) {
		a.Redis = config.RedisClient
		logger.Info("redis connected")
	} else {
		logger.Info("redis not configured or not reachable, catalog cache disabled")
	}

	es, err := config.NewElasticClient()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	a.Elastic = es

	normalizer := stock.NewNormalizer(cfg.Catalog.StockPolicy(), logger)
	a.Catalog = catalogRepo.NewCatalogRepository(a.DB, normalizer, logger)
	a.Orders = orderRepo.NewOrderRepository(a.DB)
	if es != nil {
		a.Search = searchRepo.NewSearchRepository(es, config.ElasticIndexPrefix(), normalizer, logger)
	}

	source, err := a.selectSource(cfg.Catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Source = source

	memo := cache.NewCache()
	a.Store = catalogService.NewStore(source, memo, logger)
	a.Engine = catalogService.NewEngine(catalogService.EngineOptions{
		Facets:          catalogService.NewFacetRegistry(),
		Locale:          cfg.Catalog.SortLocale,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		Memo:            memo,
		MemoTTL:         cfg.Catalog.QueryCacheTTL,
		Logger:          logger,
	})

	a.Events = cartService.NewDispatcher(cfg.Catalog.EventBuffer, logger, func(e cartService.Event) {
		logger.Debug("cart event",
			zap.String("type", string(e.Type)),
			zap.String("ledgerId", e.LedgerID),
			zap.Float64("totalPrice", e.TotalPrice),
			zap.Int("itemCount", e.ItemCount),
		)
	})
	sessions := cache.NewCache()
	a.Carts = cartService.NewSessions(sessions, cfg.Catalog.CartSessionTTL, a.Events, logger)
	browsing := cache.NewCache()
	a.Browsers = catalogService.NewBrowsers(a.Engine, browsing, cfg.Catalog.CartSessionTTL)
	a.startSweeper("query", memo, cfg.Catalog.CacheSweepInterval)
	a.startSweeper("cart", sessions, cfg.Catalog.CacheSweepInterval)
	a.startSweeper("browse", browsing, cfg.Catalog.CacheSweepInterval)

	a.Checkout, err = checkoutService.NewService(checkoutService.Deps{Orders: a.Orders, Logger: logger})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) selectSource(cfg config.CatalogConfig) (catalogService.Source, error) {
	var source catalogService.Source
	switch cfg.Source {
	case config.CatalogSourceDB, "":
		source = a.Catalog
	case config.CatalogSourceElastic:
		if a.Search == nil {
			return nil, errors.New("CATALOG_SOURCE=elastic needs ELASTICSEARCH_HOST")
		}
		source = a.Search
	default:
		return nil, fmt.Errorf("unsupported CATALOG_SOURCE %q", cfg.Source)
	}
	if a.Redis != nil {
		source = catalogRepo.NewCachedSource(source, a.Redis, cfg.CatalogCacheTTL, a.Logger)
	}
	a.Logger.Info("catalog source selected", zap.String("source", cfg.Source), zap.Bool("redisCache", a.Redis != nil))
	return source, nil
}

// Deps exposes the services to route modules.
func (a *App) Deps() *api.Deps {
	return &api.Deps{
		DB:       a.DB,
		Store:    a.Store,
		Engine:   a.Engine,
		Browsers: a.Browsers,
		Carts:    a.Carts,
		Checkout: a.Checkout,
		Logger:   a.Logger,
	}
}

func (a *App) startSweeper(name string, c *cache.Cache, interval time.Duration) {
	stop := c.StartSweeper(interval, func(removed int) {
		a.Logger.Debug("cache swept", zap.String("cache", name), zap.Int("removed", removed))
	})
	a.stops = append(a.stops, stop)
}

// Close stops the sweepers and the event dispatcher and releases the connections the App opened.
func (a *App) Close() {
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil
	if a.Events != nil {
		a.Events.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.ownsDB && a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.Logger.Sync()
}
