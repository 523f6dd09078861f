package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// DeliveryChallan records goods leaving the warehouse without a tax invoice.
// It deducts stock when the business reduces stock on delivery challans.
type DeliveryChallan struct {
	ID            int                     `gorm:"primary_key" json:"id"`
	OwnerId       string                  `gorm:"index;size:64;not null" json:"owner_id"`
	BusinessId    string                  `gorm:"index;size:64;not null" json:"business_id"`
	PartyId       int                     `gorm:"index;not null" json:"party_id"`
	SequenceNo    decimal.Decimal         `gorm:"type:decimal(15);default:0" json:"sequence_no"`
	ChallanNumber string                  `gorm:"size:255;not null" json:"challan_number"`
	ChallanDate   time.Time               `gorm:"not null" json:"challan_date"`
	VehicleNumber string                  `gorm:"size:20" json:"vehicle_number"`
	Notes         string                  `gorm:"type:text;default:null" json:"notes"`
	Details       []DeliveryChallanDetail `gorm:"foreignKey:DeliveryChallanId" json:"details"`
	CreatedAt     time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

type DeliveryChallanDetail struct {
	ID                int             `gorm:"primary_key" json:"id"`
	DeliveryChallanId int             `gorm:"index;not null" json:"delivery_challan_id"`
	ProductId         int             `gorm:"index" json:"product_id"`
	Name              string          `gorm:"size:100;not null" json:"name"`
	Description       string          `gorm:"size:255;default:null" json:"description"`
	Unit              string          `gorm:"size:50" json:"unit"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
}

type NewDeliveryChallan struct {
	PartyId       int                        `json:"party_id" binding:"required"`
	ChallanNumber string                     `json:"challan_number"`
	ChallanDate   time.Time                  `json:"challan_date" binding:"required"`
	VehicleNumber string                     `json:"vehicle_number"`
	Notes         string                     `json:"notes"`
	Details       []NewDeliveryChallanDetail `json:"details" binding:"required,dive"`
}

type NewDeliveryChallanDetail struct {
	ProductId   int             `json:"product_id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

func (input *NewDeliveryChallan) validate(ctx context.Context, businessId string) error {

	if err := utils.ValidateResourceId[Party](ctx, businessId, input.PartyId); err != nil {
		return errors.New("party not found")
	}
	if len(input.Details) == 0 {
		return errors.New("at least one line item is required")
	}

	var productIds []int
	for _, detail := range input.Details {
		if detail.Quantity.LessThan(decimal.Zero) {
			return errors.New("line quantity cannot be negative")
		}
		if detail.ProductId > 0 {
			productIds = append(productIds, detail.ProductId)
		}
	}

	businessFilter := utils.Filter{Cond: "business_id = ?", Values: []interface{}{businessId}}
	return utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{Model: Product{}, Ids: productIds, Message: "products not found", Filter: businessFilter},
	})
}

func (challan *DeliveryChallan) stockLines() []DocumentStockLine {
	lines := make([]DocumentStockLine, 0, len(challan.Details))
	for _, detail := range challan.Details {
		lines = append(lines, DocumentStockLine{ProductId: detail.ProductId, Quantity: detail.Quantity})
	}
	return lines
}

func (challan *DeliveryChallan) hasStockMovements(ctx context.Context) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&StockMovement{}).
		Where("activity_type = ? AND reference_id = ?", StockActivityDeliveryChallan, challan.ID).
		Count(&count).Error
	return count > 0, err
}

func CreateDeliveryChallan(ctx context.Context, input *NewDeliveryChallan) (*DeliveryChallan, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	challanNumber := input.ChallanNumber
	var seqNo int64
	if challanNumber == "" {
		challanNumber, seqNo, err = NextVoucherNumber[DeliveryChallan](ctx, businessId, DocTypeDeliveryChallan)
		if err != nil {
			return nil, err
		}
	}

	index := NewVoucherIndex()
	if err := ClaimVoucherNumber(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, challanNumber, 0); err != nil {
		return nil, err
	}

	details := make([]DeliveryChallanDetail, 0, len(input.Details))
	for _, detail := range input.Details {
		row := DeliveryChallanDetail{
			ProductId:   detail.ProductId,
			Name:        detail.Name,
			Description: detail.Description,
			Quantity:    detail.Quantity,
		}
		if detail.ProductId > 0 {
			if product, err := GetProduct(ctx, detail.ProductId); err == nil {
				row.Unit = product.Unit
			}
		}
		details = append(details, row)
	}

	challan := DeliveryChallan{
		OwnerId:       ownerId,
		BusinessId:    businessId,
		PartyId:       input.PartyId,
		SequenceNo:    decimal.NewFromInt(seqNo),
		ChallanNumber: challanNumber,
		ChallanDate:   input.ChallanDate,
		VehicleNumber: input.VehicleNumber,
		Notes:         input.Notes,
		Details:       details,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&challan).Error; err != nil {
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, challanNumber)
		return nil, err
	}

	settings, err := GetInventorySettings(ctx, ownerId, businessId)
	if err == nil {
		err = ApplyDocumentStockDeductions(ctx, NewStockStore(), settings, ownerId, businessId,
			StockActivityDeliveryChallan, challan.ID, challan.ChallanNumber, challan.stockLines())
	}
	if err != nil {
		db.WithContext(ctx).Where("delivery_challan_id = ?", challan.ID).Delete(&DeliveryChallanDetail{})
		db.WithContext(ctx).Delete(&DeliveryChallan{}, challan.ID)
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, challanNumber)
		return nil, err
	}

	return &challan, nil
}

func UpdateDeliveryChallan(ctx context.Context, challanId int, input *NewDeliveryChallan) (*DeliveryChallan, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var existing DeliveryChallan
	if err := db.WithContext(ctx).Preload("Details").Where("id = ?", challanId).Take(&existing).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if config.StrictStockDocImmutability() {
		moved, err := existing.hasStockMovements(ctx)
		if err != nil {
			return nil, err
		}
		if moved {
			return nil, errors.New("delivery challan has stock movements and cannot be edited; delete and recreate it")
		}
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	newNumber := input.ChallanNumber
	if newNumber == "" {
		newNumber = existing.ChallanNumber
	}
	index := NewVoucherIndex()
	if newNumber != existing.ChallanNumber {
		if err := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, existing.ChallanNumber, newNumber, existing.ID); err != nil {
			return nil, err
		}
	}

	settings, settingsErr := GetInventorySettings(ctx, ownerId, businessId)
	if settingsErr != nil {
		return nil, settingsErr
	}
	store := NewStockStore()
	oldLines := existing.stockLines()

	ReverseDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
		StockActivityDeliveryChallan, existing.ID, existing.ChallanNumber, oldLines)

	details := make([]DeliveryChallanDetail, 0, len(input.Details))
	newLines := make([]DocumentStockLine, 0, len(input.Details))
	for _, detail := range input.Details {
		row := DeliveryChallanDetail{
			DeliveryChallanId: existing.ID,
			ProductId:         detail.ProductId,
			Name:              detail.Name,
			Description:       detail.Description,
			Quantity:          detail.Quantity,
		}
		if detail.ProductId > 0 {
			if product, err := GetProduct(ctx, detail.ProductId); err == nil {
				row.Unit = product.Unit
			}
		}
		details = append(details, row)
		newLines = append(newLines, DocumentStockLine{ProductId: detail.ProductId, Quantity: detail.Quantity})
	}

	if err := ApplyDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
		StockActivityDeliveryChallan, existing.ID, newNumber, newLines); err != nil {
		if applyErr := ApplyDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
			StockActivityDeliveryChallan, existing.ID, existing.ChallanNumber, oldLines); applyErr != nil {
			logger := config.GetLogger()
			config.LogError(logger, "models", "UpdateDeliveryChallan", "failed to restore stock after aborted edit", existing.ID, applyErr)
		}
		if newNumber != existing.ChallanNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, newNumber, existing.ChallanNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateDeliveryChallan", "failed to revert voucher number", newNumber, revertErr)
			}
		}
		return nil, err
	}

	updated := existing
	updated.PartyId = input.PartyId
	updated.ChallanNumber = newNumber
	updated.ChallanDate = input.ChallanDate
	updated.VehicleNumber = input.VehicleNumber
	updated.Notes = input.Notes
	updated.Details = nil

	// A failed save must not leave the new deductions applied against the
	// old rows still persisted.
	undoEdit := func() {
		RestoreDocumentStockEdit(ctx, store, settings, ownerId, businessId,
			StockActivityDeliveryChallan, existing.ID, existing.ChallanNumber, newNumber, oldLines, newLines)
		if newNumber != existing.ChallanNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeDeliveryChallan, newNumber, existing.ChallanNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateDeliveryChallan", "failed to revert voucher number", newNumber, revertErr)
			}
		}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("delivery_challan_id = ?", existing.ID).Delete(&DeliveryChallanDetail{}).Error; err != nil {
		tx.Rollback()
		undoEdit()
		return nil, err
	}
	updated.Details = details
	if err := tx.WithContext(ctx).Save(&updated).Error; err != nil {
		tx.Rollback()
		undoEdit()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		undoEdit()
		return nil, err
	}

	return &updated, nil
}

func DeleteDeliveryChallan(ctx context.Context, challanId int) (*DeliveryChallan, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var challan DeliveryChallan
	if err := db.WithContext(ctx).Preload("Details").Where("id = ?", challanId).Take(&challan).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("delivery_challan_id = ?", challan.ID).Delete(&DeliveryChallanDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&DeliveryChallan{}, challan.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	settings, err := GetInventorySettings(ctx, ownerId, businessId)
	if err == nil {
		ReverseDocumentStockDeductions(ctx, NewStockStore(), settings, ownerId, businessId,
			StockActivityDeliveryChallan, challan.ID, challan.ChallanNumber, challan.stockLines())
	}

	releaseVoucherBestEffort(ctx, NewVoucherIndex(), ownerId, businessId, DocTypeDeliveryChallan, challan.ChallanNumber)

	return &challan, nil
}

func GetDeliveryChallan(ctx context.Context, challanId int) (*DeliveryChallan, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[DeliveryChallan](ctx, businessId, challanId, "Details")
}

func ListDeliveryChallans(ctx context.Context) ([]*DeliveryChallan, error) {

	db := config.GetDB()
	var results []*DeliveryChallan
	if err := db.WithContext(ctx).Preload("Details").
		Order("challan_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
