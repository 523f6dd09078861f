package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// NewStockAdjustment is a manual correction to a product's stock (damage,
// recount, theft). The resulting ledger movement is its only record.
type NewStockAdjustment struct {
	ProductId      int             `json:"product_id" binding:"required"`
	QuantityChange decimal.Decimal `json:"quantity_change" binding:"required"`
	Remark         string          `json:"remark"`
}

// AdjustStock applies a manual adjustment through the ledger choke point.
// Adjustments bypass the reduceStockOn setting: they are always applied.
func AdjustStock(ctx context.Context, input *NewStockAdjustment) (*StockMovement, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if input.QuantityChange.IsZero() {
		return nil, errors.New("quantity change cannot be zero")
	}

	settings, err := GetInventorySettings(ctx, ownerId, businessId)
	if err != nil {
		return nil, err
	}

	_, movement, err := ApplyStockChange(ctx, NewStockStore(), settings, ownerId, businessId,
		input.ProductId, input.QuantityChange, StockMovementMeta{
			ActivityType: StockActivityAdjustment,
			Remark:       input.Remark,
		})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
