package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// InventorySettings controls how the stock ledger behaves for one business.
// Defaults: reduce stock on invoice, value stock on purchase price, negative
// stock not allowed.
type InventorySettings struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	OwnerId            string          `gorm:"index;not null" json:"owner_id"`
	BusinessId         string          `gorm:"uniqueIndex;not null" json:"business_id"`
	ReduceStockOn      ReduceStockOn   `gorm:"type:enum('Invoice','DeliveryChallan');default:'Invoice'" json:"reduce_stock_on"`
	StockValueBasedOn  StockValueBasis `gorm:"type:enum('Purchase','Sale');default:'Purchase'" json:"stock_value_based_on"`
	AllowNegativeStock *bool           `gorm:"not null;default:false" json:"allow_negative_stock"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdateInventorySettingsInput struct {
	ReduceStockOn      ReduceStockOn   `json:"reduce_stock_on" binding:"required,oneof=Invoice DeliveryChallan"`
	StockValueBasedOn  StockValueBasis `json:"stock_value_based_on" binding:"required,oneof=Purchase Sale"`
	AllowNegativeStock *bool           `json:"allow_negative_stock" binding:"required"`
}

// DefaultInventorySettings returns the settings applied when a business has
// never saved any.
func DefaultInventorySettings(ownerId, businessId string) InventorySettings {
	return InventorySettings{
		OwnerId:            ownerId,
		BusinessId:         businessId,
		ReduceStockOn:      ReduceStockOnInvoice,
		StockValueBasedOn:  StockValueBasisPurchase,
		AllowNegativeStock: utils.NewFalse(),
	}
}

// settingsFromLookup maps a settings row lookup to its effective result.
// Only a missing row falls back to defaults; any other error surfaces, so a
// transient DB failure cannot silently re-route stock behavior (and get
// cached) as if the business had never saved settings.
func settingsFromLookup(settings InventorySettings, err error, ownerId, businessId string) (InventorySettings, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultInventorySettings(ownerId, businessId), nil
	}
	if err != nil {
		return InventorySettings{}, err
	}
	return settings, nil
}

func inventorySettingsCacheKey(businessId string) string {
	return "inventorySettings:" + businessId
}

// GetInventorySettings reads the business's settings, redis first, DB second,
// defaults last. Settings are threaded into the stock ledger as an explicit
// parameter so tests can inject arbitrary values.
func GetInventorySettings(ctx context.Context, ownerId, businessId string) (*InventorySettings, error) {

	var cached *InventorySettings
	exists, err := config.GetRedisObject(inventorySettingsCacheKey(businessId), &cached)
	if err != nil {
		return nil, err
	}
	if exists && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var settings InventorySettings
	err = db.WithContext(ctx).Where("business_id = ?", businessId).First(&settings).Error
	settings, err = settingsFromLookup(settings, err, ownerId, businessId)
	if err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(inventorySettingsCacheKey(businessId), &settings, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return &settings, nil
}

func UpdateInventorySettings(ctx context.Context, input *UpdateInventorySettingsInput) (*InventorySettings, error) {

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()

	var settings InventorySettings
	err := db.WithContext(ctx).Where("business_id = ?", businessId).First(&settings).Error
	settings, err = settingsFromLookup(settings, err, ownerId, businessId)
	if err != nil {
		return nil, err
	}
	settings.ReduceStockOn = input.ReduceStockOn
	settings.StockValueBasedOn = input.StockValueBasedOn
	settings.AllowNegativeStock = input.AllowNegativeStock

	if err := db.WithContext(ctx).Save(&settings).Error; err != nil {
		return nil, err
	}

	// Stale cache would silently re-route stock deductions.
	if err := config.RemoveRedisKey(inventorySettingsCacheKey(businessId)); err != nil {
		return nil, err
	}

	return &settings, nil
}
