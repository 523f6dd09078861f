package models

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestSettingsFromLookup_MissingRowGetsDefaults(t *testing.T) {
	settings, err := settingsFromLookup(InventorySettings{}, gorm.ErrRecordNotFound, "owner-1", "biz-1")
	if err != nil {
		t.Fatalf("settingsFromLookup: %v", err)
	}
	if settings.BusinessId != "biz-1" || settings.ReduceStockOn != ReduceStockOnInvoice {
		t.Fatalf("expected defaults for biz-1, got %+v", settings)
	}
	if settings.AllowNegativeStock == nil || *settings.AllowNegativeStock {
		t.Fatalf("defaults must not allow negative stock")
	}
}

func TestSettingsFromLookup_DBErrorSurfaces(t *testing.T) {
	dbErr := errors.New("driver: bad connection")
	_, err := settingsFromLookup(InventorySettings{}, dbErr, "owner-1", "biz-1")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected lookup error to surface, got %v", err)
	}
}

func TestSettingsFromLookup_SavedRowWins(t *testing.T) {
	saved := InventorySettings{
		OwnerId:       "owner-1",
		BusinessId:    "biz-1",
		ReduceStockOn: ReduceStockOnDeliveryChallan,
	}
	settings, err := settingsFromLookup(saved, nil, "owner-1", "biz-1")
	if err != nil {
		t.Fatalf("settingsFromLookup: %v", err)
	}
	if settings.ReduceStockOn != ReduceStockOnDeliveryChallan {
		t.Fatalf("saved settings overwritten: %+v", settings)
	}
}
