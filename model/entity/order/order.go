package order

import "time"

// SalesOrder represents the sales_order table.
type SalesOrder struct {
	OrderID    string    `gorm:"column:order_id;type:varchar(64);primaryKey" json:"order_id"`
	VendorID   string    `gorm:"column:vendor_id;type:varchar(64);not null;index" json:"vendor_id"`
	SessionID  string    `gorm:"column:session_id;type:varchar(64);index" json:"session_id,omitempty"`
	GrandTotal string    `gorm:"column:grand_total;type:decimal(20,6);not null" json:"grand_total"`
	ItemCount  int       `gorm:"column:item_count;not null" json:"item_count"`
	Status     string    `gorm:"column:status;type:varchar(32);not null;default:'placed'" json:"status"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`

	Items []SalesOrderItem `gorm:"foreignKey:OrderID;references:OrderID" json:"items,omitempty"`
}

func (SalesOrder) TableName() string {
	return "sales_order"
}

// SalesOrderItem represents sales_order_item.
type SalesOrderItem struct {
	ItemID     uint    `gorm:"column:item_id;primaryKey;autoIncrement" json:"item_id,omitempty"`
	OrderID    string  `gorm:"column:order_id;type:varchar(64);not null;index" json:"order_id"`
	ProductID  string  `gorm:"column:product_id;type:varchar(64);not null" json:"product_id"`
	VariantKey string  `gorm:"column:variant_key;type:varchar(64)" json:"variant_key,omitempty"`
	Name       string  `gorm:"column:name;type:varchar(255)" json:"name"`
	Qty        int     `gorm:"column:qty;not null" json:"qty"`
	Price      float64 `gorm:"column:price;type:decimal(20,6);not null" json:"price"`
	RowTotal   string  `gorm:"column:row_total;type:decimal(20,6);not null" json:"row_total"`
}

func (SalesOrderItem) TableName() string {
	return "sales_order_item"
}
