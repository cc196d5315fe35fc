package cart

import (
	"errors"
	"fmt"

	"storefront.GO/model/domain"
)

var (
	// ErrOutOfStock means the selected product or variant has nothing available.
	ErrOutOfStock = errors.New("cart: out of stock")
	// ErrInsufficientStock means the requested line total exceeds what is available.
	ErrInsufficientStock = errors.New("cart: insufficient stock")
	// ErrInvalidQuantity rejects non-positive increments.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	// ErrLineNotFound is returned when updating a line the ledger does not hold.
	ErrLineNotFound = errors.New("cart: line not found")
	// ErrMissingProduct is returned when repricing cannot find a line's product.
	ErrMissingProduct = errors.New("cart: product no longer in catalog")
)

// StockError carries the figures behind a stock rejection. It unwraps to ErrOutOfStock or
// ErrInsufficientStock.
type StockError struct {
	Key       domain.LineKey
	Requested int
	Available int
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v: %s requested %d, available %d", e.Err, e.Key, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return e.Err }

func stockError(key domain.LineKey, requested, available int) error {
	err := ErrInsufficientStock
	if available <= 0 {
		err = ErrOutOfStock
	}
	return &StockError{Key: key, Requested: requested, Available: available, Err: err}
}
