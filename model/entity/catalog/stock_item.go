package catalog

// StockItem represents catalog_stock_item. An empty variant key holds the product's scalar
// count; non-empty keys hold per-variant counts.
type StockItem struct {
	StockItemID uint    `gorm:"column:stock_item_id;primaryKey;autoIncrement" json:"stock_item_id,omitempty"`
	ProductID   string  `gorm:"column:product_id;type:varchar(64);not null;uniqueIndex:idx_stock_product_variant" json:"product_id"`
	VariantKey  string  `gorm:"column:variant_key;type:varchar(64);not null;default:'';uniqueIndex:idx_stock_product_variant" json:"variant_key"`
	Quantity    float64 `gorm:"column:quantity;type:decimal(12,4);not null;default:0" json:"quantity"`
}

func (StockItem) TableName() string {
	return "catalog_stock_item"
}
