package repository

import (
	"errors"
	"strings"

	"github.com/strefex/strefex/app/models"
	"gorm.io/gorm"
)

// ErrStaleTransaction is returned when an optimistic-concurrency write lost
// the race: the row's version no longer matches the one the caller loaded.
var ErrStaleTransaction = errors.New("transaction was modified concurrently")

// ErrDuplicateTransactionID is returned when an insert hits the unique index
// on the public or invoice id. Callers allocate a fresh sequence and retry.
var ErrDuplicateTransactionID = errors.New("transaction id already taken")

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.Transaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTransactionID
		}
		return err
	}
	return nil
}

// isDuplicateKey matches unique-index violations across the drivers in use
// (MySQL in production, SQLite in tests).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}

func (r *transactionRepository) GetByPublicID(publicID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("public_id = ?", publicID).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByInvoiceID(invoiceID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("invoice_id = ?", invoiceID).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateWithVersion writes the record only if nobody else advanced it since
// it was loaded. On success the in-memory version is bumped to match the row.
func (r *transactionRepository) UpdateWithVersion(tx *models.Transaction) error {
	loadedVersion := tx.Version
	tx.Version = loadedVersion + 1
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND version = ?", tx.ID, loadedVersion).
		Select("*").
		Omit("id", "created_at", "deleted_at", "tenant_slug").
		Updates(tx)
	if res.Error != nil {
		tx.Version = loadedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Version = loadedVersion
		return ErrStaleTransaction
	}
	return nil
}

func (r *transactionRepository) ListByTenant(tenantSlug string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("tenant_slug = ?", tenantSlug).Order("created_at desc").Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) ListByStatus(statuses ...string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("status IN ?", statuses).Order("created_at desc").Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) ListByKind(kind string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("kind = ?", kind).Order("created_at desc").Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) ListAll() ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Order("created_at desc").Find(&txs).Error
	return txs, err
}

// NextSequence returns a monotonically increasing value used to format the
// public transaction and invoice ids.
func (r *transactionRepository) NextSequence() (uint, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Transaction{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return uint(count) + 1, nil
}
