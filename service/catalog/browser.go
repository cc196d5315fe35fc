package catalog

import (
	"encoding/json"
	"sync"
	"time"

	"storefront.GO/core/cache"
	"storefront.GO/model/domain"
)

// Browser holds one shopper's browsing state over an Engine. Changing the criteria, the sort
// or the page size sends the shopper back to page 1.
type Browser struct {
	engine *Engine

	mu    sync.Mutex
	query Query
}

func NewBrowser(engine *Engine) *Browser {
	return &Browser{
		engine: engine,
		query:  Query{Page: 1, PageSize: engine.DefaultPageSize()},
	}
}

// State returns the current query.
func (b *Browser) State() Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// SetCriteria reports whether the criteria changed.
func (b *Browser) SetCriteria(c domain.FilterCriteria) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sameCriteria(b.query.Criteria, c) {
		return false
	}
	b.query.Criteria = c
	b.query.Page = 1
	return true
}

// SetSort reports whether the sort changed.
func (b *Browser) SetSort(s domain.SortSpec) bool {
	s.Direction = ParseDirection(string(s.Direction))
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.query.Sort == s {
		return false
	}
	b.query.Sort = s
	b.query.Page = 1
	return true
}

// SetPageSize reports whether the page size changed.
func (b *Browser) SetPageSize(n int) bool {
	n = normalizePageSize(n, b.engine.DefaultPageSize())
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.query.PageSize == n {
		return false
	}
	b.query.PageSize = n
	b.query.Page = 1
	return true
}

func (b *Browser) SetPage(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Page = n
}

// Apply replaces the whole query. The requested page only sticks when the criteria, sort and
// page size are unchanged; otherwise the browser restarts at page 1.
func (b *Browser) Apply(q Query) {
	changed := b.SetCriteria(q.Criteria)
	changed = b.SetSort(q.Sort) || changed
	changed = b.SetPageSize(q.PageSize) || changed
	if !changed && q.Page > 0 {
		b.SetPage(q.Page)
	}
}

// Page queries cat with the current state and remembers the page actually served.
func (b *Browser) Page(cat Catalog) domain.Page {
	b.mu.Lock()
	q := b.query
	b.mu.Unlock()

	page := b.engine.Query(cat, q)

	b.mu.Lock()
	if b.query.Page == q.Page {
		b.query.Page = page.Page
	}
	b.mu.Unlock()
	return page
}

func sameCriteria(a, b domain.FilterCriteria) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

// Browsers keeps one Browser per shopper and vendor. Idle browsers expire with their cache
// entry; every lookup extends it.
type Browsers struct {
	engine *Engine
	store  *cache.Cache
	ttl    time.Duration

	mu sync.Mutex
}

func NewBrowsers(engine *Engine, store *cache.Cache, ttl time.Duration) *Browsers {
	if store == nil {
		store = cache.NewCache()
	}
	return &Browsers{engine: engine, store: store, ttl: ttl}
}

// For returns the shopper's browser for vendorID, creating it on first use.
func (b *Browsers) For(sessionID, vendorID string) *Browser {
	key := cache.CompositeKey("browse", sessionID, vendorID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.store.Get(key); ok {
		br := v.(*Browser)
		b.store.Set(key, br, b.ttl, nil)
		return br
	}
	br := NewBrowser(b.engine)
	b.store.Set(key, br, b.ttl, nil)
	return br
}
