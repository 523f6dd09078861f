package models

import (
	"context"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
)

const stockReversalRemark = "Reversal"

// DocumentStockLine is one line of a stock-affecting document, reduced to what
// the ledger needs.
type DocumentStockLine struct {
	ProductId int
	Quantity  decimal.Decimal
}

func activityMatchesSettings(settings *InventorySettings, activityType StockActivityType) bool {
	reduceOn := ReduceStockOnInvoice
	if settings != nil && settings.ReduceStockOn != "" {
		reduceOn = settings.ReduceStockOn
	}
	switch activityType {
	case StockActivityInvoice:
		return reduceOn == ReduceStockOnInvoice
	case StockActivityDeliveryChallan:
		return reduceOn == ReduceStockOnDeliveryChallan
	default:
		return false
	}
}

// ApplyDocumentStockDeductions deducts stock for every line of a document,
// atomically in effect: when any line fails, every already-applied line is
// reversed (best effort) before the original error is returned. The caller
// never observes a partial deduction.
//
// Lines with a zero quantity or no product are skipped. The whole call is a
// no-op when the business's reduceStockOn setting does not match activityType.
func ApplyDocumentStockDeductions(ctx context.Context, store StockStore, settings *InventorySettings, ownerId, businessId string, activityType StockActivityType, referenceId int, referenceNumber string, lines []DocumentStockLine) error {

	if !activityMatchesSettings(settings, activityType) {
		return nil
	}

	meta := StockMovementMeta{
		ActivityType:    activityType,
		ReferenceId:     referenceId,
		ReferenceNumber: referenceNumber,
	}

	applied := make([]DocumentStockLine, 0, len(lines))
	for _, line := range lines {
		if line.ProductId <= 0 || !line.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		_, _, err := ApplyStockChange(ctx, store, settings, ownerId, businessId, line.ProductId, line.Quantity.Neg(), meta)
		if err != nil {
			rollbackAppliedLines(ctx, store, settings, ownerId, businessId, activityType, referenceId, referenceNumber, applied)
			return err
		}
		applied = append(applied, line)
	}

	return nil
}

// rollbackAppliedLines adds back the quantity of every already-applied line.
// Reversal errors are swallowed: the original failure must surface, and a
// half-reversed ledger is caught by out-of-band reconciliation.
func rollbackAppliedLines(ctx context.Context, store StockStore, settings *InventorySettings, ownerId, businessId string, activityType StockActivityType, referenceId int, referenceNumber string, applied []DocumentStockLine) {
	logger := config.GetLogger()
	meta := StockMovementMeta{
		ActivityType:    activityType,
		ReferenceId:     referenceId,
		ReferenceNumber: referenceNumber,
		Remark:          stockReversalRemark,
	}
	for _, line := range applied {
		if _, _, err := ApplyStockChange(ctx, store, reversalSettings(settings), ownerId, businessId, line.ProductId, line.Quantity, meta); err != nil {
			config.LogError(logger, "models", "rollbackAppliedLines", "failed to reverse stock line", line, err)
		}
	}
}

// reversalSettings relaxes the negative-stock check for compensating writes.
// A reversal adds stock back, so the check can never trip on the quantity
// itself, but a concurrent mutation could have pushed the product negative in
// the allow-negative window; the reversal must still run to completion.
func reversalSettings(settings *InventorySettings) *InventorySettings {
	if settings == nil {
		return nil
	}
	relaxed := *settings
	allow := true
	relaxed.AllowNegativeStock = &allow
	return &relaxed
}

// RestoreDocumentStockEdit unwinds a document edit whose final save failed
// after the new lines had already been deducted: the new deductions are
// reversed and the old lines re-applied, so the ledger matches the rows still
// persisted. Like every reversal path it never fails the caller; a partial
// restore is logged and caught by out-of-band reconciliation.
func RestoreDocumentStockEdit(ctx context.Context, store StockStore, settings *InventorySettings, ownerId, businessId string, activityType StockActivityType, referenceId int, oldNumber, newNumber string, oldLines, newLines []DocumentStockLine) {

	ReverseDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
		activityType, referenceId, newNumber, newLines)

	if !activityMatchesSettings(settings, activityType) {
		return
	}
	logger := config.GetLogger()
	meta := StockMovementMeta{
		ActivityType:    activityType,
		ReferenceId:     referenceId,
		ReferenceNumber: oldNumber,
	}
	for _, line := range oldLines {
		if line.ProductId <= 0 || !line.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		if _, _, err := ApplyStockChange(ctx, store, reversalSettings(settings), ownerId, businessId, line.ProductId, line.Quantity.Neg(), meta); err != nil {
			config.LogError(logger, "models", "RestoreDocumentStockEdit", "failed to re-apply stock line", line, err)
		}
	}
}

// ReverseDocumentStockDeductions is the symmetric inverse of
// ApplyDocumentStockDeductions, called on document deletion. It adds back
// every line's quantity, tagged as a reversal, and never returns an error:
// deletion must not be blocked by a secondary ledger failure.
func ReverseDocumentStockDeductions(ctx context.Context, store StockStore, settings *InventorySettings, ownerId, businessId string, activityType StockActivityType, referenceId int, referenceNumber string, lines []DocumentStockLine) {

	if !activityMatchesSettings(settings, activityType) {
		return
	}

	logger := config.GetLogger()
	meta := StockMovementMeta{
		ActivityType:    activityType,
		ReferenceId:     referenceId,
		ReferenceNumber: referenceNumber,
		Remark:          stockReversalRemark,
	}
	for _, line := range lines {
		if line.ProductId <= 0 || !line.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		if _, _, err := ApplyStockChange(ctx, store, reversalSettings(settings), ownerId, businessId, line.ProductId, line.Quantity, meta); err != nil {
			config.LogError(logger, "models", "ReverseDocumentStockDeductions", "failed to reverse stock line", line, err)
		}
	}
}
