package domain

// StockStatus buckets a product by its total stock.
type StockStatus string

const (
	StockAny        StockStatus = "any"
	StockInStock    StockStatus = "inStock"
	StockLowStock   StockStatus = "lowStock"
	StockOutOfStock StockStatus = "outOfStock"
)

// LowStockThreshold is the inclusive upper bound of the lowStock bucket. Totals above it are inStock.
const LowStockThreshold = 20

// StatusOf classifies a total stock count.
func StatusOf(total int) StockStatus {
	switch {
	case total <= 0:
		return StockOutOfStock
	case total <= LowStockThreshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// ParseStockStatus maps user input onto a status, accepting the snake_case aliases some
// storefronts send. Unknown values map to StockAny.
func ParseStockStatus(raw string) StockStatus {
	switch raw {
	case "inStock", "in_stock":
		return StockInStock
	case "lowStock", "low_stock":
		return StockLowStock
	case "outOfStock", "out_of_stock":
		return StockOutOfStock
	}
	return StockAny
}

// AllCategories is the category value that disables category filtering.
const AllCategories = "All"

// PriceRange bounds are inclusive; a nil bound is open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FacetSelection selects one exact value for a named domain facet.
type FacetSelection struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FilterCriteria is the full set of facet inputs for a catalog query.
type FilterCriteria struct {
	SearchTerm  string           `json:"search_term,omitempty"`
	Category    string           `json:"category,omitempty"`
	StockStatus StockStatus      `json:"stock_status,omitempty"`
	PriceRange  PriceRange       `json:"price_range"`
	Facets      []FacetSelection `json:"facets,omitempty"`
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec names the field to order by and the direction.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Page is one slice of a filtered, sorted catalog.
type Page struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	TotalPages int       `json:"total_pages"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
