// seed-admin creates a demo owner account with one business and its admin
// user so a fresh deployment can be logged into.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

const (
	adminUsername = "gstbilladmin"
	adminPassword = "G$tBillAdmin"
	adminName     = "GstBill Admin"
	businessName  = "Demo Traders"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	var existing models.User
	err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err == nil {
		fmt.Println("admin user already exists; nothing to do")
		return
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	ownerId := uuid.New().String()

	business := models.Business{
		ID:        uuid.New(),
		OwnerId:   ownerId,
		Name:      businessName,
		Timezone:  "Asia/Kolkata",
		EnableTcs: utils.NewFalse(),
		IsActive:  utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
		os.Exit(1)
	}

	settings := models.DefaultInventorySettings(ownerId, business.ID.String())
	if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create inventory settings: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user := models.User{
		OwnerId:  ownerId,
		Username: adminUsername,
		Name:     adminName,
		Password: string(hashed),
		Role:     models.UserRoleAdmin,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded owner %s, business %s (%s), user %s\n",
		ownerId, business.Name, business.ID, adminUsername)
}
