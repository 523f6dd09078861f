package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// StockMovement is one immutable ledger entry: a single quantity change and
// the resulting on-hand balance. Created once, never updated or deleted.
type StockMovement struct {
	ID              string            `gorm:"size:36;primary_key" json:"id"` // uuid
	OwnerId         string            `gorm:"index;not null" json:"owner_id"`
	BusinessId      string            `gorm:"index:idx_stock_move_biz_product,priority:1;not null" json:"business_id"`
	ProductId       int               `gorm:"index:idx_stock_move_biz_product,priority:2;not null" json:"product_id"`
	QuantityChange  decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"quantity_change"`
	FinalStock      decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"final_stock"`
	ActivityType    StockActivityType `gorm:"type:enum('Adjustment','Invoice','DeliveryChallan');not null" json:"activity_type"`
	ReferenceId     int               `gorm:"index" json:"reference_id"`
	ReferenceNumber string            `gorm:"size:255" json:"reference_number"`
	Remark          string            `gorm:"size:255" json:"remark"`
	Unit            string            `gorm:"size:50" json:"unit"`
	CreatedAt       time.Time         `gorm:"index:idx_stock_move_biz_product,priority:3;autoCreateTime" json:"created_at"`
	CorrelationId   string            `gorm:"size:64;index" json:"correlation_id"`
}

// StockMovementMeta carries the audit fields of the operation driving a stock
// change.
type StockMovementMeta struct {
	ActivityType    StockActivityType
	ReferenceId     int
	ReferenceNumber string
	Remark          string
}

// StockStore is the narrow persistence surface the stock ledger consumes.
// Production uses the GORM-backed implementation; tests inject fakes.
type StockStore interface {
	GetProduct(ctx context.Context, ownerId, businessId string, productId int) (*Product, error)
	SetProductStock(ctx context.Context, ownerId, businessId string, productId int, newStock decimal.Decimal) (*Product, error)
	AppendStockMovement(ctx context.Context, movement *StockMovement) (*StockMovement, error)
}

type gormStockStore struct{}

// NewStockStore returns the GORM/MySQL-backed StockStore.
func NewStockStore() StockStore { return gormStockStore{} }

func (gormStockStore) GetProduct(ctx context.Context, ownerId, businessId string, productId int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).
		Where("owner_id = ? AND business_id = ?", ownerId, businessId).
		First(&product, productId).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (gormStockStore) SetProductStock(ctx context.Context, ownerId, businessId string, productId int, newStock decimal.Decimal) (*Product, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Product{}).
		Where("owner_id = ? AND business_id = ? AND id = ?", ownerId, businessId, productId).
		Update("current_stock", newStock)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	var product Product
	if err := db.WithContext(ctx).First(&product, productId).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (gormStockStore) AppendStockMovement(ctx context.Context, movement *StockMovement) (*StockMovement, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyStockChange is the single choke point for every stock mutation in the
// system: manual adjustments, invoice and challan deductions, and their
// reversals all pass through here. No other code path writes current_stock.
//
// There is no lock around the read-modify-write; concurrent calls for the same
// product race. The underlying store offers no multi-key transaction spanning
// product and movement, so callers needing all-or-nothing semantics across
// lines use ApplyDocumentStockDeductions.
func ApplyStockChange(ctx context.Context, store StockStore, settings *InventorySettings, ownerId, businessId string, productId int, quantityChange decimal.Decimal, meta StockMovementMeta) (*Product, *StockMovement, error) {

	product, err := store.GetProduct(ctx, ownerId, businessId, productId)
	if err != nil {
		return nil, nil, err
	}
	if product.MaintainStock == nil || !*product.MaintainStock {
		return nil, nil, ErrStockNotTracked
	}

	newStock := product.CurrentStock.Add(quantityChange)

	allowNegative := settings != nil && settings.AllowNegativeStock != nil && *settings.AllowNegativeStock
	if !allowNegative && newStock.IsNegative() {
		return nil, nil, &InsufficientStockError{
			CurrentStock:    product.CurrentStock,
			RequestedChange: quantityChange,
		}
	}

	product, err = store.SetProductStock(ctx, ownerId, businessId, productId, newStock)
	if err != nil {
		return nil, nil, err
	}

	movement := &StockMovement{
		ID:              uuid.NewString(),
		OwnerId:         ownerId,
		BusinessId:      businessId,
		ProductId:       productId,
		QuantityChange:  quantityChange,
		FinalStock:      newStock,
		ActivityType:    meta.ActivityType,
		ReferenceId:     meta.ReferenceId,
		ReferenceNumber: meta.ReferenceNumber,
		Remark:          meta.Remark,
		Unit:            product.Unit,
		CorrelationId:   correlationIdFromContextOrNew(ctx),
	}
	movement, err = store.AppendStockMovement(ctx, movement)
	if err != nil {
		return nil, nil, err
	}

	return product, movement, nil
}

// AlignStockToLedger sets a product's current_stock to the given ledger sum
// without writing a movement. Reconciliation uses it: appending a movement
// would shift the very sum it is converging on, so the drift would reappear
// on the next run.
func AlignStockToLedger(ctx context.Context, store StockStore, ownerId, businessId string, productId int, ledgerSum decimal.Decimal) (*Product, error) {

	product, err := store.GetProduct(ctx, ownerId, businessId, productId)
	if err != nil {
		return nil, err
	}
	if product.MaintainStock == nil || !*product.MaintainStock {
		return nil, ErrStockNotTracked
	}
	if product.CurrentStock.Equal(ledgerSum) {
		return product, nil
	}
	return store.SetProductStock(ctx, ownerId, businessId, productId, ledgerSum)
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// ListStockMovements returns a product's ledger, newest first.
func ListStockMovements(ctx context.Context, businessId string, productId int, limit int) ([]*StockMovement, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ? AND product_id = ?", businessId, productId).
		Order("created_at DESC")
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	var movements []*StockMovement
	if err := dbCtx.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ExportStockMovementsExcel renders a product's ledger as an .xlsx workbook.
func ExportStockMovementsExcel(movements []*StockMovement) (*excelize.File, error) {

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "Date")
	f.SetCellValue(sheet, "B1", "Activity")
	f.SetCellValue(sheet, "C1", "Reference")
	f.SetCellValue(sheet, "D1", "QuantityChange")
	f.SetCellValue(sheet, "E1", "FinalStock")
	f.SetCellValue(sheet, "F1", "Unit")
	f.SetCellValue(sheet, "G1", "Remark")

	// Add data
	for i, m := range movements {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, m.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, "B"+row, string(m.ActivityType))
		f.SetCellValue(sheet, "C"+row, m.ReferenceNumber)
		f.SetCellValue(sheet, "D"+row, m.QuantityChange.String())
		f.SetCellValue(sheet, "E"+row, m.FinalStock.String())
		f.SetCellValue(sheet, "F"+row, m.Unit)
		f.SetCellValue(sheet, "G"+row, m.Remark)
	}

	return f, nil
}
