package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// Receipt records a payment collected from a party. It carries no line items
// and no stock effect; only its number runs through the voucher guard.
type Receipt struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OwnerId         string          `gorm:"index;size:64;not null" json:"owner_id"`
	BusinessId      string          `gorm:"index;size:64;not null" json:"business_id"`
	PartyId         int             `gorm:"index;not null" json:"party_id"`
	SequenceNo      decimal.Decimal `gorm:"type:decimal(15);default:0" json:"sequence_no"`
	ReceiptNumber   string          `gorm:"size:255;not null" json:"receipt_number"`
	ReceiptDate     time.Time       `gorm:"not null" json:"receipt_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode     PaymentMode     `gorm:"type:enum('Cash','Bank','Card','UPI','Cheque');default:'Cash'" json:"payment_mode"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	Notes           string          `gorm:"type:text;default:null" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReceipt struct {
	PartyId         int             `json:"party_id" binding:"required"`
	ReceiptNumber   string          `json:"receipt_number"`
	ReceiptDate     time.Time       `json:"receipt_date" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMode     PaymentMode     `json:"payment_mode" binding:"omitempty,oneof=Cash Bank Card UPI Cheque"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

func (input *NewReceipt) validate(ctx context.Context, businessId string) error {

	if err := utils.ValidateResourceId[Party](ctx, businessId, input.PartyId); err != nil {
		return errors.New("party not found")
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return errors.New("receipt amount must be positive")
	}
	return nil
}

func CreateReceipt(ctx context.Context, input *NewReceipt) (*Receipt, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	receiptNumber := input.ReceiptNumber
	var seqNo int64
	if receiptNumber == "" {
		receiptNumber, seqNo, err = NextVoucherNumber[Receipt](ctx, businessId, DocTypeReceipt)
		if err != nil {
			return nil, err
		}
	}

	index := NewVoucherIndex()
	if err := ClaimVoucherNumber(ctx, index, ownerId, businessId, DocTypeReceipt, receiptNumber, 0); err != nil {
		return nil, err
	}

	receipt := Receipt{
		OwnerId:         ownerId,
		BusinessId:      businessId,
		PartyId:         input.PartyId,
		SequenceNo:      decimal.NewFromInt(seqNo),
		ReceiptNumber:   receiptNumber,
		ReceiptDate:     input.ReceiptDate,
		Amount:          input.Amount,
		PaymentMode:     input.PaymentMode,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
	}
	if receipt.PaymentMode == "" {
		receipt.PaymentMode = PaymentModeCash
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&receipt).Error; err != nil {
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeReceipt, receiptNumber)
		return nil, err
	}

	return &receipt, nil
}

func UpdateReceipt(ctx context.Context, receiptId int, input *NewReceipt) (*Receipt, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var existing Receipt
	if err := db.WithContext(ctx).Where("id = ?", receiptId).Take(&existing).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	newNumber := input.ReceiptNumber
	if newNumber == "" {
		newNumber = existing.ReceiptNumber
	}
	index := NewVoucherIndex()
	if newNumber != existing.ReceiptNumber {
		if err := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeReceipt, existing.ReceiptNumber, newNumber, existing.ID); err != nil {
			return nil, err
		}
	}

	updated := existing
	updated.PartyId = input.PartyId
	updated.ReceiptNumber = newNumber
	updated.ReceiptDate = input.ReceiptDate
	updated.Amount = input.Amount
	if input.PaymentMode != "" {
		updated.PaymentMode = input.PaymentMode
	}
	updated.ReferenceNumber = input.ReferenceNumber
	updated.Notes = input.Notes

	if err := db.WithContext(ctx).Save(&updated).Error; err != nil {
		if newNumber != existing.ReceiptNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeReceipt, newNumber, existing.ReceiptNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateReceipt", "failed to revert voucher number", newNumber, revertErr)
			}
		}
		return nil, err
	}

	return &updated, nil
}

func DeleteReceipt(ctx context.Context, receiptId int) (*Receipt, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var receipt Receipt
	if err := db.WithContext(ctx).Where("id = ?", receiptId).Take(&receipt).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := db.WithContext(ctx).Delete(&Receipt{}, receipt.ID).Error; err != nil {
		return nil, err
	}

	releaseVoucherBestEffort(ctx, NewVoucherIndex(), ownerId, businessId, DocTypeReceipt, receipt.ReceiptNumber)

	return &receipt, nil
}

func GetReceipt(ctx context.Context, receiptId int) (*Receipt, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Receipt](ctx, businessId, receiptId)
}

// ListReceipts returns the business's receipts, newest first.
func ListReceipts(ctx context.Context) ([]*Receipt, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var receipts []*Receipt
	err = db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Order("receipt_date DESC, id DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
