package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

// Store keeps the current catalog snapshot per vendor. Snapshots are replaced whole, never
// edited in place, and every replacement bumps the version and drops memoized pages.
type Store struct {
	source Source
	memo   *cache.Cache
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[string]Catalog
	version   atomic.Uint64
}

// NewStore builds a Store over source. memo may be nil.
func NewStore(source Source, memo *cache.Cache, logger *zap.Logger) *Store {
	return &Store{
		source:    source,
		memo:      memo,
		logger:    logging.OrNop(logger),
		snapshots: make(map[string]Catalog),
	}
}

// Get returns the loaded snapshot for vendorID without fetching.
func (s *Store) Get(vendorID string) (Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.snapshots[vendorID]
	return c, ok
}

// Load returns the vendor's snapshot, fetching it on first use. The first fetch may be served
// from a caching source.
func (s *Store) Load(ctx context.Context, vendorID string) (Catalog, error) {
	if c, ok := s.Get(vendorID); ok {
		return c, nil
	}
	return s.reload(ctx, vendorID, false)
}

// Reload fetches the vendor's catalog from the backing store and replaces the snapshot. A
// failed fetch leaves the previous snapshot in place.
func (s *Store) Reload(ctx context.Context, vendorID string) (Catalog, error) {
	return s.reload(ctx, vendorID, true)
}

func (s *Store) reload(ctx context.Context, vendorID string, fresh bool) (Catalog, error) {
	var (
		products []domain.Product
		err      error
	)
	if fresh {
		products, err = s.fetchFresh(ctx, vendorID)
	} else {
		products, err = s.source.FetchCatalog(ctx, vendorID)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("fetch catalog %s: %w", vendorID, err)
	}
	c := s.Replace(vendorID, products)
	s.logger.Info("catalog loaded",
		zap.String("vendorId", vendorID),
		zap.Int("products", len(products)),
		zap.Uint64("version", c.Version),
	)
	return c, nil
}

// fetchFresh drops any cached copy before fetching. A failed invalidation is logged and the
// fetch still runs.
func (s *Store) fetchFresh(ctx context.Context, vendorID string) ([]domain.Product, error) {
	if inv, ok := s.source.(Invalidator); ok {
		if err := inv.Invalidate(ctx, vendorID); err != nil {
			s.logger.Warn("catalog cache invalidation failed", zap.String("vendorId", vendorID), zap.Error(err))
		}
	}
	return s.source.FetchCatalog(ctx, vendorID)
}

// Replace installs products as the vendor's snapshot.
func (s *Store) Replace(vendorID string, products []domain.Product) Catalog {
	s.mu.Lock()
	c := s.install(vendorID, append([]domain.Product(nil), products...))
	s.mu.Unlock()
	s.invalidate(vendorID)
	return c
}

// install stores a new snapshot. Callers hold mu, so versions are installed in order.
func (s *Store) install(vendorID string, products []domain.Product) Catalog {
	c := Catalog{VendorID: vendorID, Version: s.version.Add(1), Products: products}
	s.snapshots[vendorID] = c
	return c
}

// RefreshStock re-fetches the vendor's catalog from the backing store but only takes the
// stock of products already in the snapshot. Products that disappeared from the source keep
// their last known stock.
func (s *Store) RefreshStock(ctx context.Context, vendorID string) (Catalog, error) {
	if _, ok := s.Get(vendorID); !ok {
		return s.Reload(ctx, vendorID)
	}
	fresh, err := s.fetchFresh(ctx, vendorID)
	if err != nil {
		return Catalog{}, fmt.Errorf("refresh stock %s: %w", vendorID, err)
	}
	stockByID := make(map[string]domain.Stock, len(fresh))
	for _, p := range fresh {
		stockByID[p.ID] = p.Stock
	}

	// Merge against the snapshot current at install time, not the one seen before the fetch.
	s.mu.Lock()
	current, ok := s.snapshots[vendorID]
	changed := 0
	products := make([]domain.Product, len(current.Products))
	for i, p := range current.Products {
		if st, found := stockByID[p.ID]; found && !st.Equal(p.Stock) {
			p = p.WithStock(st)
			changed++
		}
		products[i] = p
	}
	c := current
	if ok && changed > 0 {
		c = s.install(vendorID, products)
	}
	s.mu.Unlock()

	if !ok {
		return s.Reload(ctx, vendorID)
	}
	if changed == 0 {
		return c, nil
	}
	s.invalidate(vendorID)
	s.logger.Info("catalog stock refreshed",
		zap.String("vendorId", vendorID),
		zap.Int("changed", changed),
		zap.Uint64("version", c.Version),
	)
	return c, nil
}

// Product looks up one product in the vendor's loaded snapshot.
func (s *Store) Product(vendorID, productID string) (domain.Product, bool) {
	c, ok := s.Get(vendorID)
	if !ok {
		return domain.Product{}, false
	}
	return c.Find(productID)
}

// Vendors lists vendors with a loaded snapshot.
func (s *Store) Vendors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.snapshots))
	for v := range s.snapshots {
		out = append(out, v)
	}
	return out
}

// Evict forgets the vendor's snapshot; the next Load fetches again.
func (s *Store) Evict(vendorID string) {
	s.mu.Lock()
	delete(s.snapshots, vendorID)
	s.mu.Unlock()
	s.invalidate(vendorID)
}

func (s *Store) invalidate(vendorID string) {
	if s.memo != nil {
		s.memo.DeleteByTag(VendorTag(vendorID))
	}
}
