package catalog

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

// EngineOptions configures an Engine. Zero values select defaults.
type EngineOptions struct {
	Facets          *FacetRegistry
	Locale          string
	DefaultPageSize int
	// Memo holds derived pages. Nil disables memoization.
	Memo    *cache.Cache
	MemoTTL time.Duration
	Logger  *zap.Logger
}

// Query is one request against a catalog snapshot.
type Query struct {
	Criteria domain.FilterCriteria
	Sort     domain.SortSpec
	Page     int
	PageSize int
}

// Engine runs filter, sort and paginate over a catalog snapshot. The derivation is pure, so
// pages of versioned snapshots are memoized.
type Engine struct {
	filter          *FacetFilter
	sorter          *Sorter
	defaultPageSize int
	memo            *cache.Cache
	memoTTL         time.Duration
	logger          *zap.Logger
}

func NewEngine(opts EngineOptions) *Engine {
	pageSize := opts.DefaultPageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		filter:          NewFacetFilter(opts.Facets),
		sorter:          NewSorter(opts.Locale),
		defaultPageSize: pageSize,
		memo:            opts.Memo,
		memoTTL:         opts.MemoTTL,
		logger:          logging.OrNop(opts.Logger),
	}
}

func (e *Engine) Filter() *FacetFilter { return e.filter }

func (e *Engine) Sorter() *Sorter { return e.sorter }

func (e *Engine) DefaultPageSize() int { return e.defaultPageSize }

// Derive filters and sorts the whole catalog without paginating.
func (e *Engine) Derive(cat Catalog, criteria domain.FilterCriteria, sort domain.SortSpec) []domain.Product {
	return e.sorter.Sort(e.filter.Apply(cat.Products, criteria), sort)
}

// Query returns one page of cat matching q.
func (e *Engine) Query(cat Catalog, q Query) domain.Page {
	q.PageSize = normalizePageSize(q.PageSize, e.defaultPageSize)
	q.Sort.Direction = ParseDirection(string(q.Sort.Direction))

	key, ok := e.memoKey(cat, q)
	if !ok {
		return Paginate(e.Derive(cat, q.Criteria, q.Sort), q.Page, q.PageSize)
	}
	v, _ := e.memo.GetOrCompute(key, e.memoTTL, []string{VendorTag(cat.VendorID)}, func() (interface{}, error) {
		return Paginate(e.Derive(cat, q.Criteria, q.Sort), q.Page, q.PageSize), nil
	})
	return copyPage(v.(domain.Page))
}

func (e *Engine) memoKey(cat Catalog, q Query) (string, bool) {
	if e.memo == nil || cat.Version == 0 {
		return "", false
	}
	criteria, err := json.Marshal(q.Criteria)
	if err != nil {
		e.logger.Warn("query not memoized", zap.String("vendorId", cat.VendorID), zap.Error(err))
		return "", false
	}
	return cache.CompositeKey("query", cat.VendorID, cat.Version, string(criteria),
		q.Sort.Field, q.Sort.Direction, q.Page, q.PageSize), true
}

// VendorTag tags every memoized entry derived from a vendor's catalog.
func VendorTag(vendorID string) string {
	return "catalog:" + vendorID
}

func copyPage(p domain.Page) domain.Page {
	p.Items = append([]domain.Product{}, p.Items...)
	return p
}
