package catalog

// TierPrice represents catalog_product_tier_price. A NULL max_qty is open-ended.
type TierPrice struct {
	ValueID   uint    `gorm:"column:value_id;primaryKey;autoIncrement" json:"value_id,omitempty"`
	ProductID string  `gorm:"column:product_id;type:varchar(64);not null;index" json:"product_id"`
	MinQty    int     `gorm:"column:min_qty;not null;default:1" json:"min_qty"`
	MaxQty    *int    `gorm:"column:max_qty" json:"max_qty,omitempty"`
	Value     float64 `gorm:"column:value;type:decimal(20,6);not null;default:0" json:"value"`
}

func (TierPrice) TableName() string {
	return "catalog_product_tier_price"
}
