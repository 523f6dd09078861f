package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// Product owns current_stock, but only the stock ledger may write it; billing
// document handlers never touch it directly.
type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	OwnerId       string          `gorm:"index;not null" json:"owner_id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description   string          `gorm:"type:text" json:"description"`
	Unit          string          `gorm:"size:50" json:"unit"`
	HsnCode       string          `gorm:"size:20" json:"hsn_code"`
	GstPercent    decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"gst_percent"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	MaintainStock *bool           `gorm:"not null;default:false" json:"maintain_stock"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_stock"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	HsnCode       string          `json:"hsn_code"`
	GstPercent    decimal.Decimal `json:"gst_percent"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	MaintainStock *bool           `json:"maintain_stock"`
	OpeningStock  decimal.Decimal `json:"opening_stock"`
}

func tenantFromContext(ctx context.Context) (string, string, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return "", "", errors.New("owner id is required")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", "", errors.New("business id is required")
	}
	return ownerId, businessId, nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateUnique[Product](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	product := Product{
		OwnerId:       ownerId,
		BusinessId:    businessId,
		Name:          input.Name,
		Description:   input.Description,
		Unit:          input.Unit,
		HsnCode:       input.HsnCode,
		GstPercent:    input.GstPercent,
		SalesPrice:    input.SalesPrice,
		PurchasePrice: input.PurchasePrice,
		MaintainStock: input.MaintainStock,
		IsActive:      utils.NewTrue(),
	}
	if product.MaintainStock == nil {
		product.MaintainStock = utils.NewFalse()
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	// Opening stock goes through the ledger so the first movement is recorded
	// like any other.
	if *product.MaintainStock && input.OpeningStock.GreaterThan(decimal.Zero) {
		settings, err := GetInventorySettings(ctx, ownerId, businessId)
		if err != nil {
			return nil, err
		}
		refreshed, _, err := ApplyStockChange(ctx, NewStockStore(), settings, ownerId, businessId, product.ID, input.OpeningStock, StockMovementMeta{
			ActivityType: StockActivityAdjustment,
			Remark:       "Opening Stock",
		})
		if err != nil {
			return nil, err
		}
		product = *refreshed
	}

	return &product, nil
}

func UpdateProduct(ctx context.Context, productId int, input *NewProduct) (*Product, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, productId)
	if err != nil {
		return nil, ErrProductNotFound
	}

	if err := utils.ValidateUnique[Product](ctx, businessId, "name", input.Name, productId); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Unit = input.Unit
	product.HsnCode = input.HsnCode
	product.GstPercent = input.GstPercent
	product.SalesPrice = input.SalesPrice
	product.PurchasePrice = input.PurchasePrice
	if input.MaintainStock != nil {
		product.MaintainStock = input.MaintainStock
	}

	db := config.GetDB()
	// Save never includes current_stock: the ledger is the only writer.
	if err := db.WithContext(ctx).Model(product).
		Omit("current_stock").
		Select("name", "description", "unit", "hsn_code", "gst_percent", "sales_price", "purchase_price", "maintain_stock").
		Updates(product).Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[Product](ctx, businessId, productId)
}

func DeleteProduct(ctx context.Context, productId int) error {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, productId)
	if err != nil {
		return ErrProductNotFound
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(product).Error
}

func GetProduct(ctx context.Context, productId int) (*Product, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, productId)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func ListProducts(ctx context.Context) ([]*Product, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[Product](ctx, businessId)
}
