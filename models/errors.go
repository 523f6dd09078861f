package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrStockNotTracked means the product exists but does not maintain stock.
	// Surfaced as a user-correctable configuration error, never retried.
	ErrStockNotTracked = errors.New("stock tracking is not enabled for this product")

	ErrVoucherNumberRequired = errors.New("voucher number is required")
	ErrVoucherNumberTaken    = errors.New("voucher number already in use")

	ErrOwnerRequired    = errors.New("owner is required")
	ErrBusinessRequired = errors.New("business is required")
)

// InsufficientStockError carries diagnostics so the caller can render an
// actionable message ("have 22, tried to deduct 1000").
type InsufficientStockError struct {
	CurrentStock    decimal.Decimal
	RequestedChange decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock (current_stock=%s, requested_change=%s)",
		e.CurrentStock.String(), e.RequestedChange.String())
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
