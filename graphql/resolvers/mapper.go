package resolvers

import (
	"math"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/shopspring/decimal"

	gqlmodels "storefront.GO/graphql/models"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/pricing"
)

func (r *QueryResolver) toProduct(p domain.Product) *gqlmodels.Product {
	total := p.Stock.Total()
	out := &gqlmodels.Product{
		ID:           gql.ID(p.ID),
		VendorID:     p.VendorID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		BasePrice:    p.BasePrice,
		SalePrice:    p.SalePrice,
		DisplayPrice: p.DisplayPrice(),
		StockTotal:   int32(total),
		StockStatus:  string(domain.StatusOf(total)),
		Variants:     []*gqlmodels.VariantStock{},
		Tiers:        []*gqlmodels.PricingTier{},
		Facets:       []*gqlmodels.FacetValue{},
		Images:       append([]string{}, p.Images...),
	}
	if !p.CreatedAt.IsZero() {
		s := p.CreatedAt.UTC().Format(time.RFC3339)
		out.CreatedAt = &s
	}
	for _, key := range p.Stock.VariantKeys() {
		out.Variants = append(out.Variants, &gqlmodels.VariantStock{Key: key, Available: int32(p.Stock.Available(key))})
	}
	// Malformed tiers are dropped; a product without tiers shows its implicit one.
	for _, t := range pricing.EffectiveTiers(p) {
		tier := &gqlmodels.PricingTier{MinQuantity: int32(t.MinQuantity), Price: t.Price}
		if t.MaxQuantity != nil {
			max := int32(math.MaxInt32)
			if *t.MaxQuantity < math.MaxInt32 {
				max = int32(*t.MaxQuantity)
			}
			tier.MaxQuantity = &max
		}
		out.Tiers = append(out.Tiers, tier)
	}
	facets := r.engine.Filter().Facets()
	for _, name := range facets.Names() {
		def, _ := facets.Lookup(name)
		if values := def.Values(p); len(values) > 0 {
			out.Facets = append(out.Facets, &gqlmodels.FacetValue{Name: name, Values: values})
		}
	}
	return out
}

func toValueCount(value string, count int) *gqlmodels.ValueCount {
	return &gqlmodels.ValueCount{Value: value, Count: int32(count)}
}

// toSummary maps a summary, listing facets in registry order.
func toSummary(s catalogService.Summary, facetOrder []string) *gqlmodels.CatalogSummary {
	out := &gqlmodels.CatalogSummary{
		TotalProducts: int32(s.TotalProducts),
		Categories:    make([]*gqlmodels.ValueCount, 0, len(s.Categories)),
		Availability:  make([]*gqlmodels.ValueCount, 0, len(s.Availability)),
		MinPrice:      s.PriceRange.Min,
		MaxPrice:      s.PriceRange.Max,
		Facets:        []*gqlmodels.FacetCounts{},
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, toValueCount(c.Value, c.Count))
	}
	for _, a := range s.Availability {
		out.Availability = append(out.Availability, toValueCount(string(a.Status), a.Count))
	}
	for _, name := range facetOrder {
		counts, ok := s.Facets[name]
		if !ok {
			continue
		}
		fc := &gqlmodels.FacetCounts{Name: name, Values: make([]*gqlmodels.ValueCount, 0, len(counts))}
		for _, vc := range counts {
			fc.Values = append(fc.Values, toValueCount(vc.Value, vc.Count))
		}
		out.Facets = append(out.Facets, fc)
	}
	return out
}

func toCart(id string, snap domain.LedgerSnapshot) *gqlmodels.Cart {
	out := &gqlmodels.Cart{
		ID:         id,
		Lines:      make([]*gqlmodels.CartLine, 0, len(snap.Lines)),
		TotalPrice: snap.TotalPrice,
		ItemCount:  int32(snap.ItemCount),
	}
	for _, l := range snap.Lines {
		line := &gqlmodels.CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  int32(l.Quantity),
			UnitPrice: l.UnitPrice,
			LineTotal: decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))).InexactFloat64(),
		}
		if l.VariantKey != "" {
			vk := l.VariantKey
			line.VariantKey = &vk
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
