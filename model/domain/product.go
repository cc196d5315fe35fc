package domain

import "time"

// PricingTier prices one quantity range. A nil MaxQuantity means the range is open-ended.
type PricingTier struct {
	MinQuantity int     `json:"min_quantity"`
	MaxQuantity *int    `json:"max_quantity"`
	Price       float64 `json:"price"`
}

// Contains reports whether qty falls inside the tier's inclusive range.
func (t PricingTier) Contains(qty int) bool {
	if qty < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || qty <= *t.MaxQuantity
}

// Facets carries the domain attributes storefront surfaces filter on.
type Facets struct {
	Dietary    string            `json:"dietary,omitempty"`
	Cuisine    string            `json:"cuisine,omitempty"`
	SpiceLevel string            `json:"spice_level,omitempty"`
	Sizes      []string          `json:"sizes,omitempty"`
	Material   string            `json:"material,omitempty"`
	Colors     []string          `json:"colors,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Product is one catalog record as the engine sees it, with stock already normalized.
type Product struct {
	ID          string        `json:"id"`
	VendorID    string        `json:"vendor_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	BasePrice   float64       `json:"base_price"`
	SalePrice   *float64      `json:"sale_price,omitempty"`
	Stock       Stock         `json:"stock"`
	Tiers       []PricingTier `json:"tiers,omitempty"`
	Facets      Facets        `json:"facets"`
	Images      []string      `json:"images,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// DisplayPrice is the catalog-facing price: the sale price when present, else the base price.
func (p Product) DisplayPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

// WithStock returns a copy of p carrying the given stock. Products are otherwise immutable.
func (p Product) WithStock(s Stock) Product {
	p.Stock = s
	return p
}

// IntPtr and FloatPtr build optional fields inline.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
