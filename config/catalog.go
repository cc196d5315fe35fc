package config

import (
	"strings"
	"time"

	"storefront.GO/service/stock"
)

// Catalog sources selectable with CATALOG_SOURCE.
const (
	CatalogSourceDB      = "db"
	CatalogSourceElastic = "elastic"
)

// CatalogConfig tunes the catalog engine, its caches and the stock refresh job.
type CatalogConfig struct {
	Source               string
	DefaultPageSize      int
	SortLocale           string
	VariantCategories    []string
	FallbackPerVariant   int
	QueryCacheTTL        time.Duration
	CatalogCacheTTL      time.Duration
	CartSessionTTL       time.Duration
	CacheSweepInterval   time.Duration
	RefreshVendors       []string
	StockRefreshSchedule string
	EventBuffer          int
}

// LoadCatalogConfig reads CatalogConfig from the environment.
func LoadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Source:               strings.ToLower(GetEnv("CATALOG_SOURCE", CatalogSourceDB)),
		DefaultPageSize:      GetEnvInt("DEFAULT_PAGE_SIZE", 20),
		SortLocale:           GetEnv("SORT_LOCALE", "en"),
		VariantCategories:    GetEnvList("VARIANT_CATEGORIES", stock.DefaultVariantCategories),
		FallbackPerVariant:   GetEnvInt("VARIANT_FALLBACK_STOCK", stock.DefaultFallbackPerVariant),
		QueryCacheTTL:        GetEnvDuration("QUERY_CACHE_TTL", 5*time.Minute),
		CatalogCacheTTL:      GetEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		CartSessionTTL:       GetEnvDuration("CART_SESSION_TTL", 2*time.Hour),
		CacheSweepInterval:   GetEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		RefreshVendors:       GetEnvList("REFRESH_VENDORS", nil),
		StockRefreshSchedule: GetEnv("STOCK_REFRESH_SCHEDULE", "@every 5m"),
		EventBuffer:          GetEnvInt("CART_EVENT_BUFFER", 256),
	}
}

// StockPolicy builds the normalizer policy from the config.
func (c CatalogConfig) StockPolicy() stock.Policy {
	return stock.Policy{
		VariantCategories:  c.VariantCategories,
		FallbackPerVariant: c.FallbackPerVariant,
	}
}
