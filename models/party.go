package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// Party is a customer or supplier a billing document is addressed to.
type Party struct {
	ID              int       `gorm:"primary_key" json:"id"`
	OwnerId         string    `gorm:"index;size:64;not null" json:"owner_id"`
	BusinessId      string    `gorm:"index;size:64;not null" json:"business_id"`
	Name            string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	PartyType       PartyType `gorm:"type:enum('Customer', 'Supplier');default:Customer" json:"party_type"`
	Gstin           string    `gorm:"size:15" json:"gstin"`
	Email           string    `gorm:"size:255" json:"email"`
	Phone           string    `gorm:"size:20" json:"phone"`
	BillingAddress  string    `gorm:"type:text" json:"billing_address"`
	ShippingAddress string    `gorm:"type:text" json:"shipping_address"`
	City            string    `gorm:"size:100" json:"city"`
	State           string    `gorm:"size:100" json:"state"`
	StateCode       string    `gorm:"size:2" json:"state_code"`
	Pincode         string    `gorm:"size:10" json:"pincode"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Name            string    `json:"name" binding:"required"`
	PartyType       PartyType `json:"party_type" binding:"omitempty,oneof=Customer Supplier"`
	Gstin           string    `json:"gstin"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	BillingAddress  string    `json:"billing_address"`
	ShippingAddress string    `json:"shipping_address"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	StateCode       string    `json:"state_code"`
	Pincode         string    `json:"pincode"`
}

func CreateParty(ctx context.Context, input *NewParty) (*Party, error) {

	ownerId, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}
	if err := utils.ValidateUnique[Party](ctx, businessId, "name", input.Name, ""); err != nil {
		return nil, err
	}

	partyType := input.PartyType
	if partyType == "" {
		partyType = PartyTypeCustomer
	}

	party := Party{
		OwnerId:         ownerId,
		BusinessId:      businessId,
		Name:            input.Name,
		PartyType:       partyType,
		Gstin:           input.Gstin,
		Email:           input.Email,
		Phone:           input.Phone,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		City:            input.City,
		State:           input.State,
		StateCode:       input.StateCode,
		Pincode:         input.Pincode,
		IsActive:        utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func UpdateParty(ctx context.Context, partyId int, input *NewParty) (*Party, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var party Party
	if err := db.WithContext(ctx).Where("id = ?", partyId).Take(&party).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}
	if err := utils.ValidateUnique[Party](ctx, businessId, "name", input.Name, partyId); err != nil {
		return nil, err
	}

	party.Name = input.Name
	if input.PartyType != "" {
		party.PartyType = input.PartyType
	}
	party.Gstin = input.Gstin
	party.Email = input.Email
	party.Phone = input.Phone
	party.BillingAddress = input.BillingAddress
	party.ShippingAddress = input.ShippingAddress
	party.City = input.City
	party.State = input.State
	party.StateCode = input.StateCode
	party.Pincode = input.Pincode

	if err := db.WithContext(ctx).Save(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func DeleteParty(ctx context.Context, partyId int) (*Party, error) {

	db := config.GetDB()
	var party Party
	if err := db.WithContext(ctx).Where("id = ?", partyId).Take(&party).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var docCount int64
	if err := db.WithContext(ctx).Model(&Invoice{}).Where("party_id = ?", partyId).Count(&docCount).Error; err != nil {
		return nil, err
	}
	if docCount > 0 {
		return nil, errors.New("party has billing documents and cannot be deleted")
	}

	if err := db.WithContext(ctx).Delete(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func GetParty(ctx context.Context, partyId int) (*Party, error) {

	_, businessId, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Party](ctx, businessId, partyId)
}

func ListParties(ctx context.Context, partyType *PartyType) ([]*Party, error) {

	db := config.GetDB()
	var results []*Party
	query := db.WithContext(ctx).Model(&Party{})
	if partyType != nil && *partyType != "" {
		query = query.Where("party_type = ?", *partyType)
	}
	if err := query.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
