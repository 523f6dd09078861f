package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// Quotation is a priced offer. It shares the invoice's billing math but never
// touches stock; converting one to an invoice goes through CreateInvoice.
type Quotation struct {
	ID              int               `gorm:"primary_key" json:"id"`
	OwnerId         string            `gorm:"index;size:64;not null" json:"owner_id"`
	BusinessId      string            `gorm:"index;size:64;not null" json:"business_id"`
	PartyId         int               `gorm:"index;not null" json:"party_id"`
	SequenceNo      decimal.Decimal   `gorm:"type:decimal(15);default:0" json:"sequence_no"`
	QuotationNumber string            `gorm:"size:255;not null" json:"quotation_number"`
	QuotationDate   time.Time         `gorm:"not null" json:"quotation_date"`
	ValidTill       *time.Time        `json:"valid_till"`
	IsTaxInclusive  *bool             `gorm:"not null;default:false" json:"is_tax_inclusive"`
	TaxableAmount   decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	TaxAmount       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Notes           string            `gorm:"type:text;default:null" json:"notes"`
	Details         []QuotationDetail `gorm:"foreignKey:QuotationId" json:"details"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type QuotationDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	QuotationId    int             `gorm:"index;not null" json:"quotation_id"`
	ProductId      int             `gorm:"index" json:"product_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Description    string          `gorm:"size:255;default:null" json:"description"`
	Unit           string          `gorm:"size:50" json:"unit"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Discount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	DiscountType   *DiscountType   `gorm:"type:enum('P', 'A');default:null" json:"discount_type"`
	GstPercent     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"gst_percent"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	GstAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
}

type NewQuotation struct {
	PartyId         int                  `json:"party_id" binding:"required"`
	QuotationNumber string               `json:"quotation_number"`
	QuotationDate   time.Time            `json:"quotation_date" binding:"required"`
	ValidTill       *time.Time           `json:"valid_till"`
	IsTaxInclusive  *bool                `json:"is_tax_inclusive"`
	Notes           string               `json:"notes"`
	Details         []NewQuotationDetail `json:"details" binding:"required,dive"`
}

type NewQuotationDetail struct {
	ProductId    int             `json:"product_id"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType *DiscountType   `json:"discount_type" binding:"omitempty,oneof=P A"`
	GstPercent   decimal.Decimal `json:"gst_percent"`
}

func (input *NewQuotation) validate(ctx context.Context, businessId string) error {

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

func buildQuotationDetails(input *NewQuotation) ([]QuotationDetail, DocumentSummary) {

	isTaxInclusive := input.IsTaxInclusive != nil && *input.IsTaxInclusive

	lineItems := make([]LineItem, 0, len(input.Details))
	for _, detail := range input.Details {
		lineItems = append(lineItems, LineItem{
			Name:           detail.Name,
			Quantity:       detail.Quantity,
			UnitPrice:      detail.UnitPrice,
			Discount:       detail.Discount,
			DiscountType:   detail.DiscountType,
			GstPercent:     detail.GstPercent,
			IsTaxInclusive: isTaxInclusive,
		})
	}
	totals := ComputeDocumentTotals(lineItems, nil, nil)

	details := make([]QuotationDetail, 0, len(input.Details))
	for i, detail := range input.Details {
		breakdown := totals.Lines[i]
		details = append(details, QuotationDetail{
			ProductId:      detail.ProductId,
			Name:           detail.Name,
			Description:    detail.Description,
			Quantity:       detail.Quantity,
			UnitPrice:      detail.UnitPrice,
			Discount:       detail.Discount,
			DiscountType:   detail.DiscountType,
			GstPercent:     detail.GstPercent,
			DiscountAmount: breakdown.DiscountAmount,
			TaxableAmount:  breakdown.TaxableAmount,
			GstAmount:      breakdown.GstAmount,
			TotalAmount:    breakdown.LineTotal,
		})
	}
	return details, totals.Summary
}

func CreateQuotation(ctx context.Context, input *NewQuotation) (*Quotation, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	details, summary := buildQuotationDetails(input)

	quotationNumber := input.QuotationNumber
	var seqNo int64
	if quotationNumber == "" {
		quotationNumber, seqNo, err = NextVoucherNumber[Quotation](ctx, businessId, DocTypeQuotation)
		if err != nil {
			return nil, err
		}
	}

	index := NewVoucherIndex()
	if err := ClaimVoucherNumber(ctx, index, ownerId, businessId, DocTypeQuotation, quotationNumber, 0); err != nil {
		return nil, err
	}

	quotation := Quotation{
		OwnerId:         ownerId,
		BusinessId:      businessId,
		PartyId:         input.PartyId,
		SequenceNo:      decimal.NewFromInt(seqNo),
		QuotationNumber: quotationNumber,
		QuotationDate:   input.QuotationDate,
		ValidTill:       input.ValidTill,
		IsTaxInclusive:  input.IsTaxInclusive,
		TaxableAmount:   summary.TaxableAmount,
		TaxAmount:       summary.TaxAmount,
		TotalAmount:     summary.GrandTotal,
		Notes:           input.Notes,
		Details:         details,
	}
	if quotation.IsTaxInclusive == nil {
		quotation.IsTaxInclusive = utils.NewFalse()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&quotation).Error; err != nil {
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeQuotation, quotationNumber)
		return nil, err
	}

	return &quotation, nil
}

func UpdateQuotation(ctx context.Context, quotationId int, input *NewQuotation) (*Quotation, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var existing Quotation
	if err := db.WithContext(ctx).Preload("Details").Where("id = ?", quotationId).Take(&existing).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	details, summary := buildQuotationDetails(input)

	newNumber := input.QuotationNumber
	if newNumber == "" {
		newNumber = existing.QuotationNumber
	}
	index := NewVoucherIndex()
	if newNumber != existing.QuotationNumber {
		if err := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeQuotation, existing.QuotationNumber, newNumber, existing.ID); err != nil {
			return nil, err
		}
	}

	for i := range details {
		details[i].QuotationId = existing.ID
	}

	updated := existing
	updated.PartyId = input.PartyId
	updated.QuotationNumber = newNumber
	updated.QuotationDate = input.QuotationDate
	updated.ValidTill = input.ValidTill
	updated.IsTaxInclusive = input.IsTaxInclusive
	if updated.IsTaxInclusive == nil {
		updated.IsTaxInclusive = utils.NewFalse()
	}
	updated.TaxableAmount = summary.TaxableAmount
	updated.TaxAmount = summary.TaxAmount
	updated.TotalAmount = summary.GrandTotal
	updated.Notes = input.Notes
	updated.Details = nil

	// A failed save must not leave the renamed claim pointing at rows that
	// still carry the old number.
	revertRename := func() {
		if newNumber != existing.QuotationNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeQuotation, newNumber, existing.QuotationNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateQuotation", "failed to revert voucher number", newNumber, revertErr)
			}
		}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("quotation_id = ?", existing.ID).Delete(&QuotationDetail{}).Error; err != nil {
		tx.Rollback()
		revertRename()
		return nil, err
	}
	updated.Details = details
	if err := tx.WithContext(ctx).Save(&updated).Error; err != nil {
		tx.Rollback()
		revertRename()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		revertRename()
		return nil, err
	}

	return &updated, nil
}

func DeleteQuotation(ctx context.Context, quotationId int) (*Quotation, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var quotation Quotation
	if err := db.WithContext(ctx).Preload("Details").Where("id = ?", quotationId).Take(&quotation).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("quotation_id = ?", quotation.ID).Delete(&QuotationDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&Quotation{}, quotation.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	releaseVoucherBestEffort(ctx, NewVoucherIndex(), ownerId, businessId, DocTypeQuotation, quotation.QuotationNumber)

	return &quotation, nil
}

func GetQuotation(ctx context.Context, quotationId int) (*Quotation, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Quotation](ctx, businessId, quotationId, "Details")
}

func ListQuotations(ctx context.Context) ([]*Quotation, error) {

	db := config.GetDB()
	var results []*Quotation
	if err := db.WithContext(ctx).Preload("Details").
		Order("quotation_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
