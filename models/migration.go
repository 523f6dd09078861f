package models

import (
	"log"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &User{},
		&Party{},
		&Product{}, &InventorySettings{}, &StockMovement{},
		&Invoice{}, &InvoiceDetail{}, &InvoiceCharge{},
		&Quotation{}, &QuotationDetail{},
		&Receipt{},
		&DeliveryChallan{}, &DeliveryChallanDetail{},
		&VoucherIndexEntry{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
