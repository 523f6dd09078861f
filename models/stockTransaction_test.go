package models_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func TestApplyDocumentStockDeductions_TwoLines(t *testing.T) {
	store := newFakeStockStore(
		trackedProduct(1, "20"),
		trackedProduct(2, "8"),
	)

	err := models.ApplyDocumentStockDeductions(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7",
		[]models.DocumentStockLine{
			{ProductId: 1, Quantity: dec("4")},
			{ProductId: 2, Quantity: dec("3")},
		})
	if err != nil {
		t.Fatalf("ApplyDocumentStockDeductions: %v", err)
	}
	if !store.products[1].CurrentStock.Equal(dec("16")) {
		t.Fatalf("product 1 stock expected 16, got %s", store.products[1].CurrentStock)
	}
	if !store.products[2].CurrentStock.Equal(dec("5")) {
		t.Fatalf("product 2 stock expected 5, got %s", store.products[2].CurrentStock)
	}
	if len(store.movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(store.movements))
	}
	for _, m := range store.movements {
		if m.ReferenceId != 7 || m.ReferenceNumber != "INV-7" {
			t.Fatalf("movement reference mismatch: %+v", m)
		}
	}
}

func TestApplyDocumentStockDeductions_CompensatesOnFailure(t *testing.T) {
	store := newFakeStockStore(
		trackedProduct(1, "20"),
		trackedProduct(2, "2"),
	)

	err := models.ApplyDocumentStockDeductions(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7",
		[]models.DocumentStockLine{
			{ProductId: 1, Quantity: dec("4")},
			{ProductId: 2, Quantity: dec("5")},
		})

	var insufficientErr *models.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// Line 1 was applied then reversed; both products end at their pre-call stock.
	if !store.products[1].CurrentStock.Equal(dec("20")) {
		t.Fatalf("product 1 stock expected restored 20, got %s", store.products[1].CurrentStock)
	}
	if !store.products[2].CurrentStock.Equal(dec("2")) {
		t.Fatalf("product 2 stock expected unchanged 2, got %s", store.products[2].CurrentStock)
	}

	// The ledger records both the deduction and its reversal.
	if len(store.movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(store.movements))
	}
	if !store.movements[0].QuantityChange.Equal(dec("-4")) {
		t.Fatalf("first movement expected -4, got %s", store.movements[0].QuantityChange)
	}
	reversal := store.movements[1]
	if !reversal.QuantityChange.Equal(dec("4")) {
		t.Fatalf("reversal movement expected +4, got %s", reversal.QuantityChange)
	}
	if reversal.Remark != "Reversal" {
		t.Fatalf("reversal remark expected %q, got %q", "Reversal", reversal.Remark)
	}
}

func TestApplyDocumentStockDeductions_SkipsWhenSettingsDiffer(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "20"))
	settings := defaultSettings()
	settings.ReduceStockOn = models.ReduceStockOnDeliveryChallan

	err := models.ApplyDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7",
		[]models.DocumentStockLine{{ProductId: 1, Quantity: dec("4")}})
	if err != nil {
		t.Fatalf("ApplyDocumentStockDeductions: %v", err)
	}
	if !store.products[1].CurrentStock.Equal(dec("20")) {
		t.Fatalf("stock expected unchanged 20, got %s", store.products[1].CurrentStock)
	}
	if len(store.movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(store.movements))
	}
}

func TestApplyDocumentStockDeductions_SkipsEmptyLines(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "20"))

	err := models.ApplyDocumentStockDeductions(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7",
		[]models.DocumentStockLine{
			{ProductId: 0, Quantity: dec("4")},
			{ProductId: 1, Quantity: dec("0")},
			{ProductId: 1, Quantity: dec("2")},
		})
	if err != nil {
		t.Fatalf("ApplyDocumentStockDeductions: %v", err)
	}
	if !store.products[1].CurrentStock.Equal(dec("18")) {
		t.Fatalf("stock expected 18, got %s", store.products[1].CurrentStock)
	}
	if len(store.movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(store.movements))
	}
}

func TestReverseDocumentStockDeductions_RoundTrip(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "22"))
	settings := defaultSettings()
	lines := []models.DocumentStockLine{{ProductId: 1, Quantity: dec("4")}}

	err := models.ApplyDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", lines)
	if err != nil {
		t.Fatalf("ApplyDocumentStockDeductions: %v", err)
	}
	if !store.products[1].CurrentStock.Equal(dec("18")) {
		t.Fatalf("stock after deduction expected 18, got %s", store.products[1].CurrentStock)
	}

	models.ReverseDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", lines)
	if !store.products[1].CurrentStock.Equal(dec("22")) {
		t.Fatalf("stock after reversal expected 22, got %s", store.products[1].CurrentStock)
	}

	reversal := store.movements[len(store.movements)-1]
	if reversal.Remark != "Reversal" {
		t.Fatalf("reversal remark expected %q, got %q", "Reversal", reversal.Remark)
	}
}

func TestReverseDocumentStockDeductions_NeverFails(t *testing.T) {
	// The product no longer exists; reversal logs and carries on.
	store := newFakeStockStore()

	models.ReverseDocumentStockDeductions(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7",
		[]models.DocumentStockLine{{ProductId: 1, Quantity: dec("4")}})

	if len(store.movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(store.movements))
	}
}

func TestRestoreDocumentStockEdit_UndoesEdit(t *testing.T) {
	// An invoice edit: the old line (-2) was reversed and the new line (-5)
	// applied, then the final save failed. Restore must put the ledger back
	// behind the rows that are still persisted: the old ones.
	store := newFakeStockStore(trackedProduct(1, "20"))
	settings := defaultSettings()

	oldLines := []models.DocumentStockLine{{ProductId: 1, Quantity: dec("2")}}
	newLines := []models.DocumentStockLine{{ProductId: 1, Quantity: dec("5")}}

	err := models.ApplyDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", oldLines)
	if err != nil {
		t.Fatalf("apply old lines: %v", err)
	}
	models.ReverseDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", oldLines)
	err = models.ApplyDocumentStockDeductions(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-8", newLines)
	if err != nil {
		t.Fatalf("apply new lines: %v", err)
	}

	models.RestoreDocumentStockEdit(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", "INV-8", oldLines, newLines)

	if !store.products[1].CurrentStock.Equal(dec("18")) {
		t.Fatalf("stock after restore expected 18, got %s", store.products[1].CurrentStock)
	}
	last := store.movements[len(store.movements)-1]
	if last.ReferenceNumber != "INV-7" || !last.QuantityChange.Equal(dec("-2")) {
		t.Fatalf("expected final movement to re-apply the old line, got %+v", last)
	}
}

func TestRestoreDocumentStockEdit_RelaxesNegativeStockCheck(t *testing.T) {
	// Stock moved underneath the edit; the restore must still run to
	// completion even if re-applying the old line goes negative.
	store := newFakeStockStore(trackedProduct(1, "1"))
	settings := defaultSettings()

	oldLines := []models.DocumentStockLine{{ProductId: 1, Quantity: dec("4")}}

	models.RestoreDocumentStockEdit(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", "INV-8", oldLines, nil)

	if !store.products[1].CurrentStock.Equal(dec("-3")) {
		t.Fatalf("stock after restore expected -3, got %s", store.products[1].CurrentStock)
	}
}

func TestRestoreDocumentStockEdit_SkipsWhenSettingsDiffer(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "20"))
	settings := defaultSettings()
	settings.ReduceStockOn = models.ReduceStockOnDeliveryChallan

	models.RestoreDocumentStockEdit(context.Background(), store, settings,
		"owner-1", "biz-1", models.StockActivityInvoice, 7, "INV-7", "INV-8",
		[]models.DocumentStockLine{{ProductId: 1, Quantity: dec("2")}},
		[]models.DocumentStockLine{{ProductId: 1, Quantity: dec("5")}})

	if !store.products[1].CurrentStock.Equal(dec("20")) {
		t.Fatalf("stock expected untouched at 20, got %s", store.products[1].CurrentStock)
	}
	if len(store.movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(store.movements))
	}
}
