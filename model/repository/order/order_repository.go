package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront.GO/model/domain"
	orderEntity "storefront.GO/model/entity/order"
	"storefront.GO/service/checkout"
)

// OrderRepository persists checkout orders in sales_order and sales_order_item.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Entities lists the tables this repository owns, for AutoMigrate.
func Entities() []interface{} {
	return []interface{}{&orderEntity.SalesOrder{}, &orderEntity.SalesOrderItem{}}
}

// SaveOrder writes the order header and its lines in one transaction.
func (r *OrderRepository) SaveOrder(ctx context.Context, o checkout.Order) error {
	row := orderEntity.SalesOrder{
		OrderID:    o.ID,
		VendorID:   o.VendorID,
		SessionID:  o.SessionID,
		GrandTotal: o.Total.StringFixed(6),
		ItemCount:  o.ItemCount,
		Status:     "placed",
		CreatedAt:  o.PlacedAt,
	}
	items := make([]orderEntity.SalesOrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		rowTotal := decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, orderEntity.SalesOrderItem{
			OrderID:    o.ID,
			ProductID:  l.ProductID,
			VariantKey: l.VariantKey,
			Name:       l.Name,
			Qty:        l.Quantity,
			Price:      l.UnitPrice,
			RowTotal:   rowTotal.StringFixed(6),
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&row).Error; err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order %s items: %w", o.ID, err)
		}
		return nil
	})
}

// FindByID loads an order with its lines in insertion order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (checkout.Order, error) {
	var row orderEntity.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Where("order_id = ?", orderID).
		First(&row).Error
	if err != nil {
		return checkout.Order{}, err
	}
	return toOrder(row)
}

// ListByVendor returns the vendor's most recent orders first.
func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]checkout.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []orderEntity.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]checkout.Order, 0, len(rows))
	for _, row := range rows {
		o, err := toOrder(row)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func toOrder(row orderEntity.SalesOrder) (checkout.Order, error) {
	total, err := decimal.NewFromString(row.GrandTotal)
	if err != nil {
		return checkout.Order{}, fmt.Errorf("order %s grand_total: %w", row.OrderID, err)
	}
	lines := make([]domain.CartLine, 0, len(row.Items))
	for _, it := range row.Items {
		lines = append(lines, domain.CartLine{
			ProductID:  it.ProductID,
			VariantKey: it.VariantKey,
			Name:       it.Name,
			Quantity:   it.Qty,
			UnitPrice:  it.Price,
		})
	}
	return checkout.Order{
		ID:        row.OrderID,
		VendorID:  row.VendorID,
		SessionID: row.SessionID,
		Lines:     lines,
		Total:     total,
		ItemCount: row.ItemCount,
		PlacedAt:  row.CreatedAt.UTC(),
	}, nil
}
