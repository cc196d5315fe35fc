package models

import "github.com/graph-gophers/graphql-go"

// --- Catalog ---

type Product struct {
	ID           graphql.ID
	VendorID     string
	Name         string
	Description  string
	Category     string
	BasePrice    float64
	SalePrice    *float64
	DisplayPrice float64
	StockTotal   int32
	StockStatus  string
	Variants     []*VariantStock
	Tiers        []*PricingTier
	Facets       []*FacetValue
	Images       []string
	CreatedAt    *string
}

type VariantStock struct {
	Key       string
	Available int32
}

type PricingTier struct {
	MinQuantity int32
	MaxQuantity *int32
	Price       float64
}

type FacetValue struct {
	Name   string
	Values []string
}

type ProductPage struct {
	Items      []*Product
	TotalCount int32
	TotalPages int32
	Page       int32
	PageSize   int32
}

// --- Summary ---

type ValueCount struct {
	Value string
	Count int32
}

type FacetCounts struct {
	Name   string
	Values []*ValueCount
}

type CatalogSummary struct {
	TotalProducts int32
	Categories    []*ValueCount
	Availability  []*ValueCount
	MinPrice      *float64
	MaxPrice      *float64
	Facets        []*FacetCounts
}

// --- Cart ---

type Cart struct {
	ID         string
	Lines      []*CartLine
	TotalPrice float64
	ItemCount  int32
}

type CartLine struct {
	ProductID  string
	VariantKey *string
	Name       string
	Quantity   int32
	UnitPrice  float64
	LineTotal  float64
}
