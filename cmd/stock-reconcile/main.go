// stock-reconcile compares every tracked product's current_stock with the sum
// of its ledger movements and reports drift. Drift appears when a compensating
// reversal was swallowed (the ledger logs and carries on rather than fail the
// caller); this job is the out-of-band catch for those cases.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/stock-reconcile [--business-id=<uuid>] [--fix]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

type driftRow struct {
	ProductId    int
	Name         string
	OwnerId      string
	BusinessId   string
	CurrentStock decimal.Decimal
	LedgerSum    decimal.Decimal
}

func main() {
	businessID := flag.String("business-id", "", "Limit the check to one business")
	fix := flag.Bool("fix", false, "Write an Adjustment movement aligning current_stock with the ledger sum")
	flag.Parse()

	ctx := context.Background()
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	query := db.WithContext(ctx).Model(&models.Product{}).Where("maintain_stock = true")
	if strings.TrimSpace(*businessID) != "" {
		query = query.Where("business_id = ?", *businessID)
	}
	var products []*models.Product
	if err := query.Find(&products).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list products: %v\n", err)
		os.Exit(1)
	}

	var drifted []driftRow
	for _, product := range products {
		var ledgerSum decimal.NullDecimal
		err := db.WithContext(ctx).Model(&models.StockMovement{}).
			Select("sum(quantity_change)").
			Where("business_id = ? AND product_id = ?", product.BusinessId, product.ID).
			Scan(&ledgerSum).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to sum movements for product %d: %v\n", product.ID, err)
			os.Exit(1)
		}
		sum := decimal.Zero
		if ledgerSum.Valid {
			sum = ledgerSum.Decimal
		}
		if !product.CurrentStock.Equal(sum) {
			drifted = append(drifted, driftRow{
				ProductId:    product.ID,
				Name:         product.Name,
				OwnerId:      product.OwnerId,
				BusinessId:   product.BusinessId,
				CurrentStock: product.CurrentStock,
				LedgerSum:    sum,
			})
		}
	}

	if len(drifted) == 0 {
		fmt.Printf("checked %d products: no drift\n", len(products))
		return
	}

	fmt.Printf("checked %d products: %d drifted\n", len(products), len(drifted))
	for _, row := range drifted {
		fmt.Printf("  product %d (%s) business %s: current_stock=%s ledger_sum=%s diff=%s\n",
			row.ProductId, row.Name, row.BusinessId,
			row.CurrentStock.String(), row.LedgerSum.String(),
			row.CurrentStock.Sub(row.LedgerSum).String())
	}

	if !*fix {
		return
	}

	// The ledger is the record of what actually happened; overwrite the
	// summary column with the ledger sum. No movement is written here, so a
	// second run finds nothing left to fix.
	store := models.NewStockStore()
	for _, row := range drifted {
		_, err := models.AlignStockToLedger(ctx, store, row.OwnerId, row.BusinessId, row.ProductId, row.LedgerSum)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fix product %d: %v\n", row.ProductId, err)
			continue
		}
		fmt.Printf("  fixed product %d: current_stock %s -> %s\n",
			row.ProductId, row.CurrentStock.String(), row.LedgerSum.String())
	}
}
