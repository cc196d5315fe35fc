package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// Product represents the catalog_product table. Facets, variant keys and images are JSON
// columns; RawStock keeps a stock payload whose shape is resolved at read time when no
// stock item rows exist.
type Product struct {
	ProductID   string         `gorm:"column:product_id;type:varchar(64);primaryKey" json:"product_id"`
	VendorID    string         `gorm:"column:vendor_id;type:varchar(64);not null;index" json:"vendor_id"`
	Name        string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Category    string         `gorm:"column:category;type:varchar(128);index" json:"category"`
	BasePrice   float64        `gorm:"column:base_price;type:decimal(20,6);not null;default:0" json:"base_price"`
	SalePrice   *float64       `gorm:"column:sale_price;type:decimal(20,6)" json:"sale_price,omitempty"`
	Facets      datatypes.JSON `gorm:"column:facets" json:"facets,omitempty"`
	VariantKeys datatypes.JSON `gorm:"column:variant_keys" json:"variant_keys,omitempty"`
	Images      datatypes.JSON `gorm:"column:images" json:"images,omitempty"`
	RawStock    datatypes.JSON `gorm:"column:raw_stock" json:"raw_stock,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`

	TierPrices []TierPrice `gorm:"foreignKey:ProductID;references:ProductID" json:"tier_prices,omitempty"`
	StockItems []StockItem `gorm:"foreignKey:ProductID;references:ProductID" json:"stock_items,omitempty"`
}

func (Product) TableName() string {
	return "catalog_product"
}
