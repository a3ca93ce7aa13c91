package repository

import (
	"context"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	SumByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	CreateTx(tx *gorm.DB, p *models.Payment) error
	SumByInvoiceTx(tx *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceID, models.PaymentCompleted).
		Order("payment_date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.SumByInvoiceTx(r.db.WithContext(ctx), invoiceID)
}

func (r *paymentRepo) SumByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	sums := make(map[uuid.UUID]decimal.Decimal, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return sums, nil
	}
	var rows []struct {
		InvoiceID uuid.UUID
		Paid      decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("invoice_id, COALESCE(SUM(amount), 0) AS paid").
		Where("invoice_id IN ? AND status = ?", invoiceIDs, models.PaymentCompleted).
		Group("invoice_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		sums[row.InvoiceID] = row.Paid
	}
	return sums, nil
}

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *models.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) SumByInvoiceTx(tx *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := tx.Model(&models.Payment{}).
		Where("invoice_id = ? AND status = ?", invoiceID, models.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	return paid, err
}
