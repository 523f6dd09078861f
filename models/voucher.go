package models

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// VoucherIndexEntry is a pure uniqueness lock for a human-facing document
// number, keyed by (owner, business, doc type, normalized number). It holds no
// business data: created on claim, deleted on release, replaced on rename.
type VoucherIndexEntry struct {
	ID         int       `gorm:"primary_key" json:"id"`
	OwnerId    string    `gorm:"uniqueIndex:idx_voucher_claim,priority:1;size:64;not null" json:"owner_id"`
	BusinessId string    `gorm:"uniqueIndex:idx_voucher_claim,priority:2;size:64;not null" json:"business_id"`
	DocType    DocType   `gorm:"uniqueIndex:idx_voucher_claim,priority:3;size:20;not null" json:"doc_type"`
	Number     string    `gorm:"uniqueIndex:idx_voucher_claim,priority:4;size:255;not null" json:"number"`
	DocumentId int       `gorm:"index" json:"document_id"`
	ClaimedAt  time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}

// VoucherIndex is the conditional-write surface the uniqueness guard consumes.
// The production implementation rides MySQL's unique key; an ordinary
// read-then-write would not reproduce the guarantee.
type VoucherIndex interface {
	// InsertIfAbsent atomically claims the entry's key, returning
	// ErrVoucherNumberTaken when it is already held.
	InsertIfAbsent(ctx context.Context, entry *VoucherIndexEntry) error
	// Delete releases a claim. Deleting a non-existent key is not an error.
	Delete(ctx context.Context, ownerId, businessId string, docType DocType, number string) error
}

type gormVoucherIndex struct{}

// NewVoucherIndex returns the GORM/MySQL-backed VoucherIndex.
func NewVoucherIndex() VoucherIndex { return gormVoucherIndex{} }

func (gormVoucherIndex) InsertIfAbsent(ctx context.Context, entry *VoucherIndexEntry) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrVoucherNumberTaken
		}
		return err
	}
	return nil
}

func (gormVoucherIndex) Delete(ctx context.Context, ownerId, businessId string, docType DocType, number string) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("owner_id = ? AND business_id = ? AND doc_type = ? AND number = ?",
			ownerId, businessId, docType, number).
		Delete(&VoucherIndexEntry{}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// ClaimVoucherNumber claims a document number exclusively for (owner,
// business, docType) before the document is persisted. The caller owns the
// compensating release: claim, write the document, release on write failure.
func ClaimVoucherNumber(ctx context.Context, index VoucherIndex, ownerId, businessId string, docType DocType, number string, documentId int) error {

	number = strings.TrimSpace(number)
	if number == "" {
		return ErrVoucherNumberRequired
	}

	return index.InsertIfAbsent(ctx, &VoucherIndexEntry{
		OwnerId:    ownerId,
		BusinessId: businessId,
		DocType:    docType,
		Number:     number,
		DocumentId: documentId,
	})
}

// ReleaseVoucherNumber drops a claim. Idempotent; releasing a number that was
// never claimed (or an empty one) is a no-op.
func ReleaseVoucherNumber(ctx context.Context, index VoucherIndex, ownerId, businessId string, docType DocType, number string) error {

	number = strings.TrimSpace(number)
	if number == "" {
		return nil
	}
	return index.Delete(ctx, ownerId, businessId, docType, number)
}

// UpdateVoucherNumber reassigns a document's number. The new number is claimed
// first so a collision leaves the old claim untouched; the old claim is then
// released best-effort. A brief window with two claims for one document is
// acceptable: the only consumer of the index is the uniqueness check itself.
func UpdateVoucherNumber(ctx context.Context, index VoucherIndex, ownerId, businessId string, docType DocType, oldNumber, newNumber string, documentId int) error {

	oldNumber = strings.TrimSpace(oldNumber)
	newNumber = strings.TrimSpace(newNumber)
	if oldNumber == newNumber {
		return nil
	}

	if err := ClaimVoucherNumber(ctx, index, ownerId, businessId, docType, newNumber, documentId); err != nil {
		return err
	}

	if err := ReleaseVoucherNumber(ctx, index, ownerId, businessId, docType, oldNumber); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "UpdateVoucherNumber", "failed to release old voucher number", oldNumber, err)
	}
	return nil
}

// NextVoucherNumber allocates the next auto number for a document type within
// a business: prefix + per-business sequence. Allocation is serialized with a
// distributed lock so concurrent instances never hand out the same sequence.
// The returned number still goes through ClaimVoucherNumber like a free-text
// one; a collision with a manually claimed number surfaces there.
func NextVoucherNumber[T any](ctx context.Context, businessId string, docType DocType) (string, int64, error) {

	var number string
	var seqNo int64
	err := utils.BusinessLock(ctx, businessId, "voucher-seq-"+string(docType), "models", "NextVoucherNumber", func() error {
		seq, err := utils.GetSequence[T](ctx, businessId)
		if err != nil {
			return err
		}
		seqNo = seq
		number = defaultVoucherPrefix(docType) + strconv.FormatInt(seq, 10)
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return number, seqNo, nil
}

// defaultVoucherPrefix returns the prefix used when auto-numbering documents.
func defaultVoucherPrefix(docType DocType) string {
	switch docType {
	case DocTypeInvoice:
		return "INV-"
	case DocTypeQuotation:
		return "QTN-"
	case DocTypeDeliveryChallan:
		return "DC-"
	case DocTypeReceipt:
		return "RCT-"
	default:
		return ""
	}
}
