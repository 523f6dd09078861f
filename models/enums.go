package models

// DiscountType selects how a discount value is interpreted.
// P = percentage of the base amount, A = flat amount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "P"
	DiscountTypeAmount     DiscountType = "A"
)

// CessType selects how a line's cess value is interpreted.
type CessType string

const (
	CessTypePercentage CessType = "Percentage"
	CessTypeFixed      CessType = "Fixed"
	CessTypePerUnit    CessType = "PerUnit"
)

// DocType identifies the kind of billing document a voucher number belongs to.
type DocType string

const (
	DocTypeInvoice         DocType = "Invoice"
	DocTypeQuotation       DocType = "Quotation"
	DocTypeDeliveryChallan DocType = "DeliveryChallan"
	DocTypeReceipt         DocType = "Receipt"
)

// StockActivityType tags a stock movement with the operation that caused it.
type StockActivityType string

const (
	StockActivityAdjustment      StockActivityType = "Adjustment"
	StockActivityInvoice         StockActivityType = "Invoice"
	StockActivityDeliveryChallan StockActivityType = "DeliveryChallan"
)

// ReduceStockOn selects which document type deducts stock.
type ReduceStockOn string

const (
	ReduceStockOnInvoice         ReduceStockOn = "Invoice"
	ReduceStockOnDeliveryChallan ReduceStockOn = "DeliveryChallan"
)

// StockValueBasis selects which price values stock for reporting.
type StockValueBasis string

const (
	StockValueBasisPurchase StockValueBasis = "Purchase"
	StockValueBasisSale     StockValueBasis = "Sale"
)

// TcsBasis selects the base amount TCS is computed on.
type TcsBasis string

const (
	TcsBasisTaxableAmount TcsBasis = "TaxableAmount"
	TcsBasisFinalAmount   TcsBasis = "FinalAmount"
)

// PaymentMode tags how a receipt was settled.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeBank   PaymentMode = "Bank"
	PaymentModeCard   PaymentMode = "Card"
	PaymentModeUpi    PaymentMode = "UPI"
	PaymentModeCheque PaymentMode = "Cheque"
)

// UserRole is the coarse access level of a user account.
// A = admin, O = owner, S = staff.
type UserRole string

const (
	UserRoleAdmin UserRole = "A"
	UserRoleOwner UserRole = "O"
	UserRoleStaff UserRole = "S"
)

// PartyType distinguishes customers from suppliers.
type PartyType string

const (
	PartyTypeCustomer PartyType = "Customer"
	PartyTypeSupplier PartyType = "Supplier"
)
