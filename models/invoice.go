package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

type Invoice struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	OwnerId            string          `gorm:"index;size:64;not null" json:"owner_id"`
	BusinessId         string          `gorm:"index;size:64;not null" json:"business_id"`
	PartyId            int             `gorm:"index;not null" json:"party_id"`
	SequenceNo         decimal.Decimal `gorm:"type:decimal(15);default:0" json:"sequence_no"`
	InvoiceNumber      string          `gorm:"size:255;not null" json:"invoice_number"`
	InvoiceDate        time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate            *time.Time      `json:"due_date"`
	IsTaxInclusive     *bool           `gorm:"not null;default:false" json:"is_tax_inclusive"`
	GlobalDiscount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"global_discount"`
	GlobalDiscountType *DiscountType   `gorm:"type:enum('P', 'A');default:null" json:"global_discount_type"`
	TaxableAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TcsAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tcs_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Notes              string          `gorm:"type:text;default:null" json:"notes"`
	TermsAndConditions string          `gorm:"type:text;default:null" json:"terms_and_conditions"`
	Details            []InvoiceDetail `gorm:"foreignKey:InvoiceId" json:"details"`
	Charges            []InvoiceCharge `gorm:"foreignKey:InvoiceId" json:"charges"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	InvoiceId      int             `gorm:"index;not null" json:"invoice_id"`
	ProductId      int             `gorm:"index" json:"product_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Description    string          `gorm:"size:255;default:null" json:"description"`
	HsnCode        string          `gorm:"size:10" json:"hsn_code"`
	Unit           string          `gorm:"size:50" json:"unit"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Discount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	DiscountType   *DiscountType   `gorm:"type:enum('P', 'A');default:null" json:"discount_type"`
	GstPercent     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"gst_percent"`
	Cess           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cess"`
	CessType       *CessType       `gorm:"type:enum('Percentage', 'Fixed', 'PerUnit');default:null" json:"cess_type"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	GstAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceCharge struct {
	ID            int             `gorm:"primary_key" json:"id"`
	InvoiceId     int             `gorm:"index;not null" json:"invoice_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	GstPercent    decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"gst_percent"`
	TaxableAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	GstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
}

type NewInvoice struct {
	PartyId            int                `json:"party_id" binding:"required"`
	InvoiceNumber      string             `json:"invoice_number"`
	InvoiceDate        time.Time          `json:"invoice_date" binding:"required"`
	DueDate            *time.Time         `json:"due_date"`
	IsTaxInclusive     *bool              `json:"is_tax_inclusive"`
	GlobalDiscount     decimal.Decimal    `json:"global_discount"`
	GlobalDiscountType *DiscountType      `json:"global_discount_type" binding:"omitempty,oneof=P A"`
	Notes              string             `json:"notes"`
	TermsAndConditions string             `json:"terms_and_conditions"`
	Details            []NewInvoiceDetail `json:"details" binding:"required,dive"`
	Charges            []NewInvoiceCharge `json:"charges" binding:"dive"`
}

type NewInvoiceDetail struct {
	ProductId    int             `json:"product_id"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType *DiscountType   `json:"discount_type" binding:"omitempty,oneof=P A"`
	GstPercent   decimal.Decimal `json:"gst_percent"`
	Cess         decimal.Decimal `json:"cess"`
	CessType     *CessType       `json:"cess_type" binding:"omitempty,oneof=Percentage Fixed PerUnit"`
}

type NewInvoiceCharge struct {
	Name       string          `json:"name" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	GstPercent decimal.Decimal `json:"gst_percent"`
}

func (input *NewInvoice) validate(ctx context.Context, businessId string) error {

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
		if detail.UnitPrice.LessThan(decimal.Zero) {
			return errors.New("line unit price cannot be negative")
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

// buildInvoiceParts converts the raw input into persisted detail/charge rows
// with their computed amounts, plus the document summary.
func buildInvoiceParts(ctx context.Context, input *NewInvoice) ([]InvoiceDetail, []InvoiceCharge, DocumentSummary, error) {

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
			Cess:           detail.Cess,
			CessType:       detail.CessType,
		})
	}
	charges := make([]AdditionalCharge, 0, len(input.Charges))
	for _, charge := range input.Charges {
		charges = append(charges, AdditionalCharge{
			Name:           charge.Name,
			Amount:         charge.Amount,
			GstPercent:     charge.GstPercent,
			IsTaxInclusive: isTaxInclusive,
		})
	}

	totals := ComputeDocumentTotals(lineItems, charges, tcsSpecForBusiness(ctx))

	details := make([]InvoiceDetail, 0, len(input.Details))
	for i, detail := range input.Details {
		breakdown := totals.Lines[i]
		row := InvoiceDetail{
			ProductId:      detail.ProductId,
			Name:           detail.Name,
			Description:    detail.Description,
			Quantity:       detail.Quantity,
			UnitPrice:      detail.UnitPrice,
			Discount:       detail.Discount,
			DiscountType:   detail.DiscountType,
			GstPercent:     detail.GstPercent,
			Cess:           detail.Cess,
			CessType:       detail.CessType,
			DiscountAmount: breakdown.DiscountAmount,
			TaxableAmount:  breakdown.TaxableAmount,
			GstAmount:      breakdown.GstAmount,
			TotalAmount:    breakdown.LineTotal,
		}
		if detail.ProductId > 0 {
			if product, err := GetProduct(ctx, detail.ProductId); err == nil {
				row.HsnCode = product.HsnCode
				row.Unit = product.Unit
			}
		}
		details = append(details, row)
	}

	chargeRows := make([]InvoiceCharge, 0, len(input.Charges))
	for i, charge := range input.Charges {
		breakdown := totals.Charges[i]
		chargeRows = append(chargeRows, InvoiceCharge{
			Name:          charge.Name,
			Amount:        charge.Amount,
			GstPercent:    charge.GstPercent,
			TaxableAmount: breakdown.TaxableAmount,
			GstAmount:     breakdown.GstAmount,
			TotalAmount:   breakdown.Total,
		})
	}

	return details, chargeRows, totals.Summary, nil
}

// tcsSpecForBusiness reads the business's TCS configuration. Nil when TCS is
// disabled or the business cannot be loaded.
func tcsSpecForBusiness(ctx context.Context) *TcsSpec {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil
	}
	business, err := GetBusiness(ctx, businessId)
	if err != nil {
		return nil
	}
	if business.EnableTcs == nil || !*business.EnableTcs || !business.TcsRate.GreaterThan(decimal.Zero) {
		return nil
	}
	return &TcsSpec{Percentage: business.TcsRate, Basis: business.TcsBasedOn}
}

func (invoice *Invoice) stockLines() []DocumentStockLine {
	lines := make([]DocumentStockLine, 0, len(invoice.Details))
	for _, detail := range invoice.Details {
		lines = append(lines, DocumentStockLine{ProductId: detail.ProductId, Quantity: detail.Quantity})
	}
	return lines
}

// hasStockMovements reports whether the ledger holds movements for this
// invoice. Used by the strict-immutability check.
func (invoice *Invoice) hasStockMovements(ctx context.Context) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&StockMovement{}).
		Where("activity_type = ? AND reference_id = ?", StockActivityInvoice, invoice.ID).
		Count(&count).Error
	return count > 0, err
}

// CreateInvoice writes a new invoice: number claimed first, document written,
// then stock deducted. Any downstream failure compensates the earlier steps so
// a failed create leaves no claim, no document and no stock change behind.
func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	details, chargeRows, summary, err := buildInvoiceParts(ctx, input)
	if err != nil {
		return nil, err
	}

	invoiceNumber := input.InvoiceNumber
	var seqNo int64
	if invoiceNumber == "" {
		invoiceNumber, seqNo, err = NextVoucherNumber[Invoice](ctx, businessId, DocTypeInvoice)
		if err != nil {
			return nil, err
		}
	}

	index := NewVoucherIndex()
	if err := ClaimVoucherNumber(ctx, index, ownerId, businessId, DocTypeInvoice, invoiceNumber, 0); err != nil {
		return nil, err
	}

	invoice := Invoice{
		OwnerId:            ownerId,
		BusinessId:         businessId,
		PartyId:            input.PartyId,
		SequenceNo:         decimal.NewFromInt(seqNo),
		InvoiceNumber:      invoiceNumber,
		InvoiceDate:        input.InvoiceDate,
		DueDate:            input.DueDate,
		IsTaxInclusive:     input.IsTaxInclusive,
		GlobalDiscount:     input.GlobalDiscount,
		GlobalDiscountType: input.GlobalDiscountType,
		TaxableAmount:      summary.TaxableAmount,
		TaxAmount:          summary.TaxAmount,
		TcsAmount:          summary.TcsAmount,
		TotalAmount:        summary.GrandTotal,
		Notes:              input.Notes,
		TermsAndConditions: input.TermsAndConditions,
		Details:            details,
		Charges:            chargeRows,
	}
	if invoice.IsTaxInclusive == nil {
		invoice.IsTaxInclusive = utils.NewFalse()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeInvoice, invoiceNumber)
		return nil, err
	}

	settings, err := GetInventorySettings(ctx, ownerId, businessId)
	if err == nil {
		err = ApplyDocumentStockDeductions(ctx, NewStockStore(), settings, ownerId, businessId,
			StockActivityInvoice, invoice.ID, invoice.InvoiceNumber, invoice.stockLines())
	}
	if err != nil {
		// The stock pass already reversed its own applied lines; undo the
		// document write and the claim.
		db.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceDetail{})
		db.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceCharge{})
		db.WithContext(ctx).Delete(&Invoice{}, invoice.ID)
		releaseVoucherBestEffort(ctx, index, ownerId, businessId, DocTypeInvoice, invoiceNumber)
		return nil, err
	}

	return &invoice, nil
}

func releaseVoucherBestEffort(ctx context.Context, index VoucherIndex, ownerId, businessId string, docType DocType, number string) {
	if err := ReleaseVoucherNumber(ctx, index, ownerId, businessId, docType, number); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "releaseVoucherBestEffort", "failed to release voucher number", number, err)
	}
}

// UpdateInvoice rewrites an invoice: stock is reversed for the old lines and
// re-deducted for the new ones, and a changed number goes through
// claim-new-then-release-old so a collision fails before anything moved.
func UpdateInvoice(ctx context.Context, invoiceId int, input *NewInvoice) (*Invoice, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var existing Invoice
	if err := db.WithContext(ctx).Preload("Details").Preload("Charges").
		Where("id = ?", invoiceId).Take(&existing).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if config.StrictStockDocImmutability() {
		moved, err := existing.hasStockMovements(ctx)
		if err != nil {
			return nil, err
		}
		if moved {
			return nil, errors.New("invoice has stock movements and cannot be edited; delete and recreate it")
		}
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	details, chargeRows, summary, err := buildInvoiceParts(ctx, input)
	if err != nil {
		return nil, err
	}

	newNumber := input.InvoiceNumber
	if newNumber == "" {
		newNumber = existing.InvoiceNumber
	}
	index := NewVoucherIndex()
	if newNumber != existing.InvoiceNumber {
		if err := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeInvoice, existing.InvoiceNumber, newNumber, existing.ID); err != nil {
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
		StockActivityInvoice, existing.ID, existing.InvoiceNumber, oldLines)

	updated := existing
	updated.PartyId = input.PartyId
	updated.InvoiceNumber = newNumber
	updated.InvoiceDate = input.InvoiceDate
	updated.DueDate = input.DueDate
	updated.IsTaxInclusive = input.IsTaxInclusive
	if updated.IsTaxInclusive == nil {
		updated.IsTaxInclusive = utils.NewFalse()
	}
	updated.GlobalDiscount = input.GlobalDiscount
	updated.GlobalDiscountType = input.GlobalDiscountType
	updated.TaxableAmount = summary.TaxableAmount
	updated.TaxAmount = summary.TaxAmount
	updated.TcsAmount = summary.TcsAmount
	updated.TotalAmount = summary.GrandTotal
	updated.Notes = input.Notes
	updated.TermsAndConditions = input.TermsAndConditions
	updated.Details = nil
	updated.Charges = nil

	for i := range details {
		details[i].InvoiceId = existing.ID
	}
	for i := range chargeRows {
		chargeRows[i].InvoiceId = existing.ID
	}

	newLines := make([]DocumentStockLine, 0, len(details))
	for _, detail := range details {
		newLines = append(newLines, DocumentStockLine{ProductId: detail.ProductId, Quantity: detail.Quantity})
	}
	if err := ApplyDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
		StockActivityInvoice, existing.ID, newNumber, newLines); err != nil {
		// Put the old deductions back and revert the number claim.
		if applyErr := ApplyDocumentStockDeductions(ctx, store, settings, ownerId, businessId,
			StockActivityInvoice, existing.ID, existing.InvoiceNumber, oldLines); applyErr != nil {
			logger := config.GetLogger()
			config.LogError(logger, "models", "UpdateInvoice", "failed to restore stock after aborted edit", existing.ID, applyErr)
		}
		if newNumber != existing.InvoiceNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeInvoice, newNumber, existing.InvoiceNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateInvoice", "failed to revert voucher number", newNumber, revertErr)
			}
		}
		return nil, err
	}

	// A failed save must not leave the new deductions applied against the
	// old rows still persisted.
	undoEdit := func() {
		RestoreDocumentStockEdit(ctx, store, settings, ownerId, businessId,
			StockActivityInvoice, existing.ID, existing.InvoiceNumber, newNumber, oldLines, newLines)
		if newNumber != existing.InvoiceNumber {
			if revertErr := UpdateVoucherNumber(ctx, index, ownerId, businessId, DocTypeInvoice, newNumber, existing.InvoiceNumber, existing.ID); revertErr != nil {
				logger := config.GetLogger()
				config.LogError(logger, "models", "UpdateInvoice", "failed to revert voucher number", newNumber, revertErr)
			}
		}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("invoice_id = ?", existing.ID).Delete(&InvoiceDetail{}).Error; err != nil {
		tx.Rollback()
		undoEdit()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("invoice_id = ?", existing.ID).Delete(&InvoiceCharge{}).Error; err != nil {
		tx.Rollback()
		undoEdit()
		return nil, err
	}
	updated.Details = details
	updated.Charges = chargeRows
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

// DeleteInvoice removes an invoice, adds its stock back and frees its number.
func DeleteInvoice(ctx context.Context, invoiceId int) (*Invoice, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var invoice Invoice
	if err := db.WithContext(ctx).Preload("Details").Preload("Charges").
		Where("id = ?", invoiceId).Take(&invoice).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceCharge{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&Invoice{}, invoice.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	settings, err := GetInventorySettings(ctx, ownerId, businessId)
	if err == nil {
		ReverseDocumentStockDeductions(ctx, NewStockStore(), settings, ownerId, businessId,
			StockActivityInvoice, invoice.ID, invoice.InvoiceNumber, invoice.stockLines())
	}

	releaseVoucherBestEffort(ctx, NewVoucherIndex(), ownerId, businessId, DocTypeInvoice, invoice.InvoiceNumber)

	return &invoice, nil
}

func GetInvoice(ctx context.Context, invoiceId int) (*Invoice, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Invoice](ctx, businessId, invoiceId, "Details", "Charges")
}

func ListInvoices(ctx context.Context) ([]*Invoice, error) {

	db := config.GetDB()
	var results []*Invoice
	if err := db.WithContext(ctx).Preload("Details").Preload("Charges").
		Order("invoice_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
