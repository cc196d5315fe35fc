package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"storefront.GO/model/domain"
)

// Predicate decides whether a product passes one facet.
type Predicate interface {
	Match(p domain.Product) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(p domain.Product) bool

func (f PredicateFunc) Match(p domain.Product) bool { return f(p) }

var matchAll = PredicateFunc(func(domain.Product) bool { return true })

var matchNone = PredicateFunc(func(domain.Product) bool { return false })

// And combines predicates with logical AND. No predicates matches everything.
func And(preds ...Predicate) Predicate {
	return PredicateFunc(func(p domain.Product) bool {
		for _, pred := range preds {
			if !pred.Match(p) {
				return false
			}
		}
		return true
	})
}

// Filter keeps the products matching every predicate, preserving input order. The input
// slice is not modified.
func Filter(items []domain.Product, preds ...Predicate) []domain.Product {
	all := And(preds...)
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		if all.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// SearchPredicate matches term as a case-folded substring of the product's name, description,
// category or any searchable facet value. A blank term matches everything.
func SearchPredicate(term string, searchable []FacetDef) Predicate {
	term = strings.TrimSpace(term)
	if term == "" {
		return matchAll
	}
	// A Caser keeps state between calls, so each predicate owns one.
	folder := cases.Fold()
	needle := folder.String(term)
	return PredicateFunc(func(p domain.Product) bool {
		fields := []string{p.Name, p.Description, p.Category}
		for _, def := range searchable {
			fields = append(fields, def.Values(p)...)
		}
		for _, f := range fields {
			if f != "" && strings.Contains(folder.String(f), needle) {
				return true
			}
		}
		return false
	})
}

// CategoryPredicate matches the category exactly. Empty or "All" matches everything.
func CategoryPredicate(category string) Predicate {
	if category == "" || category == domain.AllCategories {
		return matchAll
	}
	return PredicateFunc(func(p domain.Product) bool { return p.Category == category })
}

// StockStatusPredicate buckets the product's total stock with domain.StatusOf.
func StockStatusPredicate(status domain.StockStatus) Predicate {
	if status == "" || status == domain.StockAny {
		return matchAll
	}
	return PredicateFunc(func(p domain.Product) bool {
		return domain.StatusOf(p.Stock.Total()) == status
	})
}

// PriceRangePredicate applies inclusive bounds to the display price.
func PriceRangePredicate(r domain.PriceRange) Predicate {
	if r.Min == nil && r.Max == nil {
		return matchAll
	}
	return PredicateFunc(func(p domain.Product) bool {
		price := p.DisplayPrice()
		if r.Min != nil && price < *r.Min {
			return false
		}
		return r.Max == nil || price <= *r.Max
	})
}

// FacetPredicate matches products carrying value for def.
func FacetPredicate(def FacetDef, value string) Predicate {
	value = strings.TrimSpace(value)
	return PredicateFunc(func(p domain.Product) bool {
		for _, v := range def.Values(p) {
			if v == value {
				return true
			}
		}
		return false
	})
}

// FacetFilter builds predicate chains from FilterCriteria using a facet registry.
type FacetFilter struct {
	facets *FacetRegistry
}

func NewFacetFilter(facets *FacetRegistry) *FacetFilter {
	if facets == nil {
		facets = NewFacetRegistry()
	}
	return &FacetFilter{facets: facets}
}

// Facets returns the registry the filter resolves facet names against.
func (f *FacetFilter) Facets() *FacetRegistry { return f.facets }

// Predicates returns one predicate per active criterion. Selections with an empty value are
// toggled off; selections naming an unregistered facet match nothing.
func (f *FacetFilter) Predicates(c domain.FilterCriteria) []Predicate {
	preds := []Predicate{
		SearchPredicate(c.SearchTerm, f.facets.Searchable()),
		CategoryPredicate(c.Category),
		StockStatusPredicate(c.StockStatus),
		PriceRangePredicate(c.PriceRange),
	}
	for _, sel := range c.Facets {
		if strings.TrimSpace(sel.Value) == "" {
			continue
		}
		def, ok := f.facets.Lookup(sel.Name)
		if !ok {
			preds = append(preds, matchNone)
			continue
		}
		preds = append(preds, FacetPredicate(def, sel.Value))
	}
	return preds
}

// Apply filters items by c.
func (f *FacetFilter) Apply(items []domain.Product, c domain.FilterCriteria) []domain.Product {
	return Filter(items, f.Predicates(c)...)
}
