package catalog

import (
	"context"
	"errors"

	"storefront.GO/model/domain"
)

// ErrVendorNotFound is returned by sources that know the vendor does not exist.
var ErrVendorNotFound = errors.New("catalog: vendor not found")

// Source fetches a vendor's product records with stock already normalized. Sources may be
// slow and may fail; callers get the error unchanged.
type Source interface {
	FetchCatalog(ctx context.Context, vendorID string) ([]domain.Product, error)
}

// Invalidator is implemented by caching sources. Store calls it before an explicit reload so
// the fetch reaches the backing store.
type Invalidator interface {
	Invalidate(ctx context.Context, vendorID string) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, vendorID string) ([]domain.Product, error)

func (f SourceFunc) FetchCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return f(ctx, vendorID)
}

// StaticSource serves fixed product lists, keyed by vendor.
type StaticSource map[string][]domain.Product

func (s StaticSource) FetchCatalog(_ context.Context, vendorID string) ([]domain.Product, error) {
	products, ok := s[vendorID]
	if !ok {
		return nil, ErrVendorNotFound
	}
	return append([]domain.Product(nil), products...), nil
}

// Catalog is an immutable snapshot of one vendor's products. Version changes whenever the
// product set is replaced, so it can key memoized query results. Version 0 marks an ad-hoc
// catalog that is never memoized.
type Catalog struct {
	VendorID string
	Version  uint64
	Products []domain.Product
}

// Find returns the product with id.
func (c Catalog) Find(id string) (domain.Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Categories lists distinct categories in first-seen order.
func (c Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.Products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
