package repository

import (
	"context"
	"time"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceFilter struct {
	Status     string
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	CountByStatus(ctx context.Context, statuses ...string) (int64, error)

	CreateTx(tx *gorm.DB, inv *models.Invoice) error
	CreateItemsTx(tx *gorm.DB, items []models.InvoiceItem) error
	FindByServiceIDTx(tx *gorm.DB, serviceID uuid.UUID) (*models.Invoice, error)
	// LockByIDTx reads the invoice with its items under a row lock.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error)
	// CompareAndSwapStatusTx bumps the version and writes status only when
	// the stored version still equals expectedVersion.
	CompareAndSwapStatusTx(tx *gorm.DB, id uuid.UUID, expectedVersion int, status string) (bool, error)
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_type DESC, created_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC") }).
		First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		q = q.Where("issue_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("issue_date <= ?", *filter.To)
	}
	var invoices []models.Invoice
	err := q.Order("issue_date DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *models.Invoice) error {
	return tx.Omit(clause.Associations).Create(inv).Error
}

func (r *invoiceRepo) CreateItemsTx(tx *gorm.DB, items []models.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *invoiceRepo) FindByServiceIDTx(tx *gorm.DB, serviceID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Preload("Items").First(&inv, "service_id = ?", serviceID).Error
	return &inv, err
}

func (r *invoiceRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) CompareAndSwapStatusTx(tx *gorm.DB, id uuid.UUID, expectedVersion int, status string) (bool, error) {
	res := tx.Model(&models.Invoice{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected == 1, res.Error
}
