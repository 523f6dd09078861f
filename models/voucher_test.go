package models_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

type voucherKey struct {
	OwnerId    string
	BusinessId string
	DocType    models.DocType
	Number     string
}

// fakeVoucherIndex is an in-memory VoucherIndex with the same conditional
// insert semantics as the MySQL-backed one.
type fakeVoucherIndex struct {
	claims map[voucherKey]int
}

func newFakeVoucherIndex() *fakeVoucherIndex {
	return &fakeVoucherIndex{claims: map[voucherKey]int{}}
}

func (f *fakeVoucherIndex) InsertIfAbsent(_ context.Context, entry *models.VoucherIndexEntry) error {
	key := voucherKey{entry.OwnerId, entry.BusinessId, entry.DocType, entry.Number}
	if _, held := f.claims[key]; held {
		return models.ErrVoucherNumberTaken
	}
	f.claims[key] = entry.DocumentId
	return nil
}

func (f *fakeVoucherIndex) Delete(_ context.Context, ownerId, businessId string, docType models.DocType, number string) error {
	delete(f.claims, voucherKey{ownerId, businessId, docType, number})
	return nil
}

func TestClaimVoucherNumber_Lifecycle(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-42", 1)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}

	err = models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-42", 2)
	if !errors.Is(err, models.ErrVoucherNumberTaken) {
		t.Fatalf("second claim expected ErrVoucherNumberTaken, got %v", err)
	}

	if err := models.ReleaseVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-42"); err != nil {
		t.Fatalf("release: %v", err)
	}

	// After release the number is claimable again.
	err = models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-42", 2)
	if err != nil {
		t.Fatalf("re-claim after release: %v", err)
	}
}

func TestClaimVoucherNumber_ScopedByTypeAndBusiness(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "42", 1); err != nil {
		t.Fatalf("invoice claim: %v", err)
	}
	// Same number, different doc type.
	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeQuotation, "42", 2); err != nil {
		t.Fatalf("quotation claim: %v", err)
	}
	// Same number and type, different business.
	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-2", models.DocTypeInvoice, "42", 3); err != nil {
		t.Fatalf("other-business claim: %v", err)
	}
}

func TestClaimVoucherNumber_EmptyNumber(t *testing.T) {
	index := newFakeVoucherIndex()

	err := models.ClaimVoucherNumber(context.Background(), index, "owner-1", "biz-1", models.DocTypeInvoice, "   ", 1)
	if !errors.Is(err, models.ErrVoucherNumberRequired) {
		t.Fatalf("expected ErrVoucherNumberRequired, got %v", err)
	}
	if len(index.claims) != 0 {
		t.Fatalf("expected no claims, got %d", len(index.claims))
	}
}

func TestReleaseVoucherNumber_Idempotent(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	if err := models.ReleaseVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-42"); err != nil {
		t.Fatalf("release of unclaimed number: %v", err)
	}
	if err := models.ReleaseVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, ""); err != nil {
		t.Fatalf("release of empty number: %v", err)
	}
}

func TestUpdateVoucherNumber(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-1", 1); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Same number is a no-op.
	if err := models.UpdateVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-1", "INV-1", 1); err != nil {
		t.Fatalf("no-op rename: %v", err)
	}

	if err := models.UpdateVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-1", "INV-2", 1); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, held := index.claims[voucherKey{"owner-1", "biz-1", models.DocTypeInvoice, "INV-1"}]; held {
		t.Fatalf("old number still claimed after rename")
	}
	if _, held := index.claims[voucherKey{"owner-1", "biz-1", models.DocTypeInvoice, "INV-2"}]; !held {
		t.Fatalf("new number not claimed after rename")
	}
}

func TestUpdateVoucherNumber_CollisionKeepsOldClaim(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-1", 1); err != nil {
		t.Fatalf("claim INV-1: %v", err)
	}
	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-2", 2); err != nil {
		t.Fatalf("claim INV-2: %v", err)
	}

	err := models.UpdateVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "INV-1", "INV-2", 1)
	if !errors.Is(err, models.ErrVoucherNumberTaken) {
		t.Fatalf("expected ErrVoucherNumberTaken, got %v", err)
	}
	if docId := index.claims[voucherKey{"owner-1", "biz-1", models.DocTypeInvoice, "INV-1"}]; docId != 1 {
		t.Fatalf("old claim lost on failed rename")
	}
}

func TestClaimVoucherNumber_ReceiptLifecycle(t *testing.T) {
	index := newFakeVoucherIndex()
	ctx := context.Background()

	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeReceipt, "RCT-1", 1); err != nil {
		t.Fatalf("claim RCT-1: %v", err)
	}
	err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeReceipt, "RCT-1", 2)
	if !errors.Is(err, models.ErrVoucherNumberTaken) {
		t.Fatalf("expected ErrVoucherNumberTaken, got %v", err)
	}

	// Receipt numbers live in their own namespace; an invoice can reuse it.
	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeInvoice, "RCT-1", 3); err != nil {
		t.Fatalf("claim RCT-1 as invoice: %v", err)
	}

	if err := models.ReleaseVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeReceipt, "RCT-1"); err != nil {
		t.Fatalf("release RCT-1: %v", err)
	}
	if err := models.ClaimVoucherNumber(ctx, index, "owner-1", "biz-1", models.DocTypeReceipt, "RCT-1", 4); err != nil {
		t.Fatalf("re-claim after release: %v", err)
	}
}
