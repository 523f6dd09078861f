package config

import (
	"os"
	"strings"
)

// StrictStockDocImmutability enables guardrails for stock-affecting documents:
// invoices and delivery challans that have already produced stock movements cannot
// be edited in place; they must be deleted and recreated.
//
// Set via env:
// - STRICT_STOCK_DOC_IMMUTABLE=true
func StrictStockDocImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_STOCK_DOC_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
