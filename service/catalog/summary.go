package catalog

import (
	"sort"

	"storefront.GO/model/domain"
)

// Summary exposes supporting data used to render filter controls for a product set.
type Summary struct {
	TotalProducts int                     `json:"total_products"`
	Categories    []ValueCount            `json:"categories"`
	Availability  []StatusCount           `json:"availability"`
	PriceRange    domain.PriceRange       `json:"price_range"`
	Facets        map[string][]ValueCount `json:"facets"`
}

// ValueCount is one selectable value and how many products carry it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// StatusCount counts products per stock bucket.
type StatusCount struct {
	Status domain.StockStatus `json:"status"`
	Count  int                `json:"count"`
}

// Summarize counts categories, stock buckets, registered facet values and the display price
// range across products. Value lists are sorted by descending count, then value.
func Summarize(products []domain.Product, facets *FacetRegistry) Summary {
	s := Summary{
		TotalProducts: len(products),
		Facets:        make(map[string][]ValueCount),
	}

	categories := make(map[string]int)
	statuses := map[domain.StockStatus]int{
		domain.StockInStock:    0,
		domain.StockLowStock:   0,
		domain.StockOutOfStock: 0,
	}
	facetCounts := make(map[string]map[string]int)

	var names []string
	if facets != nil {
		names = facets.Names()
	}

	for i, p := range products {
		if p.Category != "" {
			categories[p.Category]++
		}
		statuses[domain.StatusOf(p.Stock.Total())]++

		price := p.DisplayPrice()
		if i == 0 || price < *s.PriceRange.Min {
			s.PriceRange.Min = domain.FloatPtr(price)
		}
		if i == 0 || price > *s.PriceRange.Max {
			s.PriceRange.Max = domain.FloatPtr(price)
		}

		for _, name := range names {
			def, _ := facets.Lookup(name)
			for _, v := range def.Values(p) {
				if v == "" {
					continue
				}
				if facetCounts[name] == nil {
					facetCounts[name] = make(map[string]int)
				}
				facetCounts[name][v]++
			}
		}
	}

	s.Categories = sortedCounts(categories)
	for _, st := range []domain.StockStatus{domain.StockInStock, domain.StockLowStock, domain.StockOutOfStock} {
		s.Availability = append(s.Availability, StatusCount{Status: st, Count: statuses[st]})
	}
	for name, counts := range facetCounts {
		s.Facets[name] = sortedCounts(counts)
	}
	return s
}

func sortedCounts(m map[string]int) []ValueCount {
	out := make([]ValueCount, 0, len(m))
	for v, c := range m {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
