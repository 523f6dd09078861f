package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// Business is the tenant anchor: every billing document, product, party and
// stock movement hangs off one business. A business belongs to one owner
// account; an owner can run several businesses.
type Business struct {
	ID         uuid.UUID       `gorm:"primary_key" json:"id"`
	OwnerId    string          `gorm:"index;size:64;not null" json:"owner_id"`
	Name       string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Gstin      string          `gorm:"size:15" json:"gstin"`
	Pan        string          `gorm:"size:10" json:"pan"`
	Email      string          `gorm:"size:255" json:"email"`
	Phone      string          `gorm:"size:20" json:"phone"`
	Address    string          `gorm:"type:text" json:"address"`
	City       string          `gorm:"size:100" json:"city"`
	State      string          `gorm:"size:100" json:"state"`
	StateCode  string          `gorm:"size:2" json:"state_code"`
	Pincode    string          `gorm:"size:10" json:"pincode"`
	Timezone   string          `gorm:"size:50" json:"timezone"`
	EnableTcs  *bool           `gorm:"not null;default:false" json:"enable_tcs"`
	TcsRate    decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"tcs_rate"`
	TcsBasedOn TcsBasis        `gorm:"type:enum('TaxableAmount', 'FinalAmount');default:TaxableAmount" json:"tcs_based_on"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name      string `json:"name" binding:"required"`
	Gstin     string `json:"gstin"`
	Pan       string `json:"pan"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	StateCode string `json:"state_code"`
	Pincode   string `json:"pincode"`
	Timezone  string `json:"timezone"`
}

func (business *Business) StoreRedis() error {
	return config.SetRedisObject("Business:"+fmt.Sprint(business.ID), business, 0)
}

func (business *Business) RemoveRedis() error {
	return config.RemoveRedisKey("Business:" + fmt.Sprint(business.ID))
}

// CreateBusiness creates a business for the owner in context, along with its
// default inventory settings.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, ErrOwnerRequired
	}

	if err := utils.ValidateUnique[Business](ctx, "", "name", input.Name, ""); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	timezone := input.Timezone
	if timezone == "" {
		timezone = "Asia/Kolkata"
	}

	business := Business{
		ID:        uuid.New(),
		OwnerId:   ownerId,
		Name:      input.Name,
		Gstin:     input.Gstin,
		Pan:       input.Pan,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		City:      input.City,
		State:     input.State,
		StateCode: input.StateCode,
		Pincode:   input.Pincode,
		Timezone:  timezone,
		EnableTcs: utils.NewFalse(),
		IsActive:  utils.NewTrue(),
	}

	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	settings := DefaultInventorySettings(ownerId, business.ID.String())
	if err := tx.WithContext(ctx).Create(&settings).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &business, nil
}

func UpdateBusiness(ctx context.Context, id string, input *NewBusiness) (*Business, error) {

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, ErrOwnerRequired
	}

	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerId).Take(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := utils.ValidateUnique[Business](ctx, "", "name", input.Name, id); err != nil {
		return nil, err
	}

	business.Name = input.Name
	business.Gstin = input.Gstin
	business.Pan = input.Pan
	business.Email = input.Email
	business.Phone = input.Phone
	business.Address = input.Address
	business.City = input.City
	business.State = input.State
	business.StateCode = input.StateCode
	business.Pincode = input.Pincode
	if input.Timezone != "" {
		business.Timezone = input.Timezone
	}

	if err := db.WithContext(ctx).Save(&business).Error; err != nil {
		return nil, err
	}
	if err := business.RemoveRedis(); err != nil {
		return nil, err
	}

	return &business, nil
}

func GetBusiness(ctx context.Context, id string) (*Business, error) {

	var business Business
	exists, err := config.GetRedisObject("Business:"+id, &business)
	if err != nil {
		return nil, err
	}
	if exists {
		return &business, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := business.StoreRedis(); err != nil {
		return nil, err
	}
	return &business, nil
}

func ListBusinesses(ctx context.Context) ([]*Business, error) {

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, ErrOwnerRequired
	}

	db := config.GetDB()
	var results []*Business
	if err := db.WithContext(ctx).Where("owner_id = ?", ownerId).Order("created_at").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
