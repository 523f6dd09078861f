package models

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// LineItem is one sold line of a billing document. It is owned by the parent
// document and never persisted on its own; document rows are converted to
// LineItem before totals are computed.
type LineItem struct {
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	DiscountType   *DiscountType   `json:"discount_type"`
	GstPercent     decimal.Decimal `json:"gst_percent"`
	IsTaxInclusive bool            `json:"is_tax_inclusive"`
	// Cess is carried on the schema but not aggregated into the summary.
	// See the note on ComputeDocumentTotals.
	Cess     decimal.Decimal `json:"cess"`
	CessType *CessType       `json:"cess_type"`
}

// AdditionalCharge is a named flat charge (freight, packing, ...) taxed with
// the same inclusive/exclusive logic as a line item, without a discount step.
type AdditionalCharge struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	GstPercent     decimal.Decimal `json:"gst_percent"`
	IsTaxInclusive bool            `json:"is_tax_inclusive"`
}

// TcsSpec describes Tax Collected at Source for a document.
type TcsSpec struct {
	Percentage decimal.Decimal `json:"percentage"`
	Basis      TcsBasis        `json:"basis"`
}

type LineItemBreakdown struct {
	BaseAmount     decimal.Decimal `json:"base_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	GstAmount      decimal.Decimal `json:"gst_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type ChargeBreakdown struct {
	Name          string          `json:"name"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	GstAmount     decimal.Decimal `json:"gst_amount"`
	Total         decimal.Decimal `json:"total"`
}

// DocumentSummary is the per-document roll-up. Computed on every read, never
// authoritative; the raw line items are the source of truth.
type DocumentSummary struct {
	TotalItemTaxable   decimal.Decimal `json:"total_item_taxable"`
	TotalItemGst       decimal.Decimal `json:"total_item_gst"`
	TotalChargeTaxable decimal.Decimal `json:"total_charge_taxable"`
	TotalChargeGst     decimal.Decimal `json:"total_charge_gst"`
	TaxableAmount      decimal.Decimal `json:"taxable_amount"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	TcsAmount          decimal.Decimal `json:"tcs_amount"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
}

type DocumentTotals struct {
	Lines   []LineItemBreakdown `json:"lines"`
	Charges []ChargeBreakdown   `json:"charges"`
	Summary DocumentSummary     `json:"summary"`
}

// CalculateLineItem computes the breakdown of a single sold line.
// Inputs are assumed already validated (non-negative quantity/price); there are
// no error conditions here.
func CalculateLineItem(item LineItem) LineItemBreakdown {

	baseAmount := utils.RoundMoney(item.Quantity.Mul(item.UnitPrice))

	var discountAmount decimal.Decimal
	if item.DiscountType != nil {
		discountAmount = utils.RoundMoney(
			utils.CalculateDiscountAmount(baseAmount, item.Discount, string(*item.DiscountType)))
	}

	taxableAmount := baseAmount.Sub(discountAmount)

	var gstAmount decimal.Decimal
	if item.IsTaxInclusive && item.GstPercent.GreaterThan(decimal.Zero) {
		// The taxable amount already contains GST; back it out.
		gstAmount = utils.RoundMoney(utils.CalculateTaxAmount(taxableAmount, item.GstPercent, true))
		taxableAmount = taxableAmount.Sub(gstAmount)
	} else {
		gstAmount = utils.RoundMoney(utils.CalculateTaxAmount(taxableAmount, item.GstPercent, false))
	}

	return LineItemBreakdown{
		BaseAmount:     baseAmount,
		DiscountAmount: discountAmount,
		TaxableAmount:  taxableAmount,
		GstAmount:      gstAmount,
		LineTotal:      taxableAmount.Add(gstAmount),
	}
}

// CalculateAdditionalCharge computes the breakdown of a flat charge.
func CalculateAdditionalCharge(charge AdditionalCharge) ChargeBreakdown {

	taxableAmount := utils.RoundMoney(charge.Amount)

	var gstAmount decimal.Decimal
	if charge.IsTaxInclusive && charge.GstPercent.GreaterThan(decimal.Zero) {
		gstAmount = utils.RoundMoney(utils.CalculateTaxAmount(taxableAmount, charge.GstPercent, true))
		taxableAmount = taxableAmount.Sub(gstAmount)
	} else {
		gstAmount = utils.RoundMoney(utils.CalculateTaxAmount(taxableAmount, charge.GstPercent, false))
	}

	return ChargeBreakdown{
		Name:          charge.Name,
		TaxableAmount: taxableAmount,
		GstAmount:     gstAmount,
		Total:         taxableAmount.Add(gstAmount),
	}
}

// ComputeDocumentTotals combines all lines and charges into the document
// summary. Pure and side-effect free.
//
// Each sub-result is money-rounded independently and the summary sums the
// already-rounded parts; raw sums are never re-rounded. Callers that compare
// against reference output depend on this rounding-then-summing order.
//
// Known gap kept on purpose: line-level cess and the document-level global
// discount are carried in the input schema but are NOT part of the summary.
func ComputeDocumentTotals(lineItems []LineItem, charges []AdditionalCharge, tcs *TcsSpec) DocumentTotals {

	totals := DocumentTotals{
		Lines:   make([]LineItemBreakdown, 0, len(lineItems)),
		Charges: make([]ChargeBreakdown, 0, len(charges)),
	}

	var totalItemTaxable, totalItemGst decimal.Decimal
	for _, item := range lineItems {
		breakdown := CalculateLineItem(item)
		totalItemTaxable = totalItemTaxable.Add(breakdown.TaxableAmount)
		totalItemGst = totalItemGst.Add(breakdown.GstAmount)
		totals.Lines = append(totals.Lines, breakdown)
	}

	var totalChargeTaxable, totalChargeGst decimal.Decimal
	for _, charge := range charges {
		breakdown := CalculateAdditionalCharge(charge)
		totalChargeTaxable = totalChargeTaxable.Add(breakdown.TaxableAmount)
		totalChargeGst = totalChargeGst.Add(breakdown.GstAmount)
		totals.Charges = append(totals.Charges, breakdown)
	}

	taxableAmount := totalItemTaxable.Add(totalChargeTaxable)
	taxAmount := totalItemGst.Add(totalChargeGst)

	var tcsAmount decimal.Decimal
	if tcs != nil && tcs.Percentage.GreaterThan(decimal.Zero) {
		tcsBase := taxableAmount
		if tcs.Basis == TcsBasisFinalAmount {
			tcsBase = taxableAmount.Add(taxAmount)
		}
		tcsAmount = utils.RoundMoney(tcsBase.Mul(tcs.Percentage).DivRound(decimal.NewFromInt(100), 4))
	}

	totals.Summary = DocumentSummary{
		TotalItemTaxable:   totalItemTaxable,
		TotalItemGst:       totalItemGst,
		TotalChargeTaxable: totalChargeTaxable,
		TotalChargeGst:     totalChargeGst,
		TaxableAmount:      taxableAmount,
		TaxAmount:          taxAmount,
		TcsAmount:          tcsAmount,
		GrandTotal:         taxableAmount.Add(taxAmount).Add(tcsAmount),
	}

	return totals
}
