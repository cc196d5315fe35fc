package catalog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
)

// facetParamPrefix marks query params that select a facet value, e.g. facet.dietary=veg.
const facetParamPrefix = "facet."

// ParseQuery maps listing query params onto an engine query. Unparsable numbers are ignored.
func ParseQuery(v url.Values) catalogService.Query {
	q := catalogService.Query{
		Criteria: domain.FilterCriteria{
			SearchTerm:  v.Get("q"),
			Category:    v.Get("category"),
			StockStatus: domain.ParseStockStatus(v.Get("stock")),
			PriceRange: domain.PriceRange{
				Min: parseFloat(v.Get("min_price")),
				Max: parseFloat(v.Get("max_price")),
			},
		},
		Sort: domain.SortSpec{
			Field:     v.Get("sort"),
			Direction: catalogService.ParseDirection(v.Get("dir")),
		},
		Page:     parseInt(v.Get("page")),
		PageSize: parseInt(v.Get("page_size")),
	}

	var names []string
	for key := range v {
		if strings.HasPrefix(key, facetParamPrefix) {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	for _, key := range names {
		q.Criteria.Facets = append(q.Criteria.Facets, domain.FacetSelection{
			Name:  strings.TrimPrefix(key, facetParamPrefix),
			Value: v.Get(key),
		})
	}
	return q
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
