package domain

import "time"

// LineKey identifies a cart line. VariantKey is empty for products without variant stock.
type LineKey struct {
	ProductID  string `json:"product_id"`
	VariantKey string `json:"variant_key,omitempty"`
}

func (k LineKey) String() string {
	if k.VariantKey == "" {
		return k.ProductID
	}
	return k.ProductID + "/" + k.VariantKey
}

// CartLine is one active ledger entry. UnitPrice is the price resolved for Quantity.
type CartLine struct {
	ProductID  string  `json:"product_id"`
	VariantKey string  `json:"variant_key,omitempty"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantKey: l.VariantKey}
}

// LedgerSnapshot is a consistent copy of a ledger with its derived totals.
type LedgerSnapshot struct {
	Lines      []CartLine `json:"lines"`
	TotalPrice float64    `json:"total_price"`
	ItemCount  int        `json:"item_count"`
}

// OrderReceipt is returned by checkout once an order has been accepted.
type OrderReceipt struct {
	OrderID    string    `json:"order_id"`
	VendorID   string    `json:"vendor_id,omitempty"`
	TotalPrice float64   `json:"total_price"`
	ItemCount  int       `json:"item_count"`
	PlacedAt   time.Time `json:"placed_at"`
}
