package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// fakeStockStore is an in-memory StockStore so ledger behavior can be tested
// without a database.
type fakeStockStore struct {
	products  map[int]*models.Product
	movements []*models.StockMovement

	// failAppendFor makes AppendStockMovement fail for a product id.
	failAppendFor map[int]bool
}

func newFakeStockStore(products ...*models.Product) *fakeStockStore {
	s := &fakeStockStore{
		products:      map[int]*models.Product{},
		failAppendFor: map[int]bool{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStockStore) GetProduct(_ context.Context, _, _ string, productId int) (*models.Product, error) {
	p, ok := s.products[productId]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStockStore) SetProductStock(_ context.Context, _, _ string, productId int, newStock decimal.Decimal) (*models.Product, error) {
	p, ok := s.products[productId]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	p.CurrentStock = newStock
	cp := *p
	return &cp, nil
}

func (s *fakeStockStore) AppendStockMovement(_ context.Context, movement *models.StockMovement) (*models.StockMovement, error) {
	if s.failAppendFor[movement.ProductId] {
		return nil, errors.New("movement append failed")
	}
	s.movements = append(s.movements, movement)
	return movement, nil
}

func trackedProduct(id int, stock string) *models.Product {
	return &models.Product{
		ID:            id,
		OwnerId:       "owner-1",
		BusinessId:    "biz-1",
		Name:          "Widget",
		Unit:          "pcs",
		CurrentStock:  dec(stock),
		MaintainStock: utils.NewTrue(),
	}
}

func defaultSettings() *models.InventorySettings {
	s := models.DefaultInventorySettings("owner-1", "biz-1")
	return &s
}

func TestApplyStockChange_Addition(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "20"))

	product, movement, err := models.ApplyStockChange(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", 1, dec("5"), models.StockMovementMeta{ActivityType: models.StockActivityAdjustment})
	if err != nil {
		t.Fatalf("ApplyStockChange: %v", err)
	}
	if !product.CurrentStock.Equal(dec("25")) {
		t.Fatalf("current stock expected 25, got %s", product.CurrentStock)
	}
	if !movement.FinalStock.Equal(dec("25")) {
		t.Fatalf("movement final stock expected 25, got %s", movement.FinalStock)
	}
	if !movement.QuantityChange.Equal(dec("5")) {
		t.Fatalf("movement quantity change expected 5, got %s", movement.QuantityChange)
	}
	if movement.Unit != "pcs" {
		t.Fatalf("movement unit expected pcs, got %s", movement.Unit)
	}
}

func TestApplyStockChange_InsufficientStock(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "22"))

	_, _, err := models.ApplyStockChange(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", 1, dec("-1000"), models.StockMovementMeta{ActivityType: models.StockActivityInvoice})

	var insufficientErr *models.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !insufficientErr.CurrentStock.Equal(dec("22")) {
		t.Fatalf("diagnostic current stock expected 22, got %s", insufficientErr.CurrentStock)
	}
	if !insufficientErr.RequestedChange.Equal(dec("-1000")) {
		t.Fatalf("diagnostic requested change expected -1000, got %s", insufficientErr.RequestedChange)
	}

	// No partial write.
	if !store.products[1].CurrentStock.Equal(dec("22")) {
		t.Fatalf("current stock expected unchanged 22, got %s", store.products[1].CurrentStock)
	}
	if len(store.movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(store.movements))
	}
}

func TestApplyStockChange_NegativeStockAllowed(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "3"))
	settings := defaultSettings()
	settings.AllowNegativeStock = utils.NewTrue()

	product, movement, err := models.ApplyStockChange(context.Background(), store, settings,
		"owner-1", "biz-1", 1, dec("-10"), models.StockMovementMeta{ActivityType: models.StockActivityInvoice})
	if err != nil {
		t.Fatalf("ApplyStockChange: %v", err)
	}
	if !product.CurrentStock.Equal(dec("-7")) {
		t.Fatalf("current stock expected -7, got %s", product.CurrentStock)
	}
	if !movement.FinalStock.Equal(dec("-7")) {
		t.Fatalf("movement final stock expected -7, got %s", movement.FinalStock)
	}
}

func TestApplyStockChange_ProductNotFound(t *testing.T) {
	store := newFakeStockStore()

	_, _, err := models.ApplyStockChange(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", 99, dec("1"), models.StockMovementMeta{ActivityType: models.StockActivityAdjustment})
	if !errors.Is(err, models.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestApplyStockChange_StockNotTracked(t *testing.T) {
	product := trackedProduct(1, "10")
	product.MaintainStock = utils.NewFalse()
	store := newFakeStockStore(product)

	_, _, err := models.ApplyStockChange(context.Background(), store, defaultSettings(),
		"owner-1", "biz-1", 1, dec("1"), models.StockMovementMeta{ActivityType: models.StockActivityAdjustment})
	if !errors.Is(err, models.ErrStockNotTracked) {
		t.Fatalf("expected ErrStockNotTracked, got %v", err)
	}
}

func TestAlignStockToLedger_NoMovementWritten(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "18"))

	product, err := models.AlignStockToLedger(context.Background(), store, "owner-1", "biz-1", 1, dec("22"))
	if err != nil {
		t.Fatalf("AlignStockToLedger: %v", err)
	}
	if !product.CurrentStock.Equal(dec("22")) {
		t.Fatalf("current stock expected 22, got %s", product.CurrentStock)
	}
	if len(store.movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(store.movements))
	}
}

func TestAlignStockToLedger_Converges(t *testing.T) {
	store := newFakeStockStore(trackedProduct(1, "18"))

	if _, err := models.AlignStockToLedger(context.Background(), store, "owner-1", "biz-1", 1, dec("22")); err != nil {
		t.Fatalf("first align: %v", err)
	}
	product, err := models.AlignStockToLedger(context.Background(), store, "owner-1", "biz-1", 1, dec("22"))
	if err != nil {
		t.Fatalf("second align: %v", err)
	}
	if !product.CurrentStock.Equal(dec("22")) {
		t.Fatalf("current stock expected 22 after second run, got %s", product.CurrentStock)
	}
	if len(store.movements) != 0 {
		t.Fatalf("expected no movements after repeated runs, got %d", len(store.movements))
	}
}

func TestAlignStockToLedger_StockNotTracked(t *testing.T) {
	product := trackedProduct(1, "10")
	product.MaintainStock = utils.NewFalse()
	store := newFakeStockStore(product)

	if _, err := models.AlignStockToLedger(context.Background(), store, "owner-1", "biz-1", 1, dec("5")); !errors.Is(err, models.ErrStockNotTracked) {
		t.Fatalf("expected ErrStockNotTracked, got %v", err)
	}
}
