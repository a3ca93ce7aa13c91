package repository

import (
	"context"
	"time"

	"bengkel-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartUsage is one service_parts row joined with its service date and part name.
type PartUsage struct {
	PartName    string
	Quantity    int
	UnitCost    decimal.Decimal
	ServiceDate time.Time
}

// ReportRepository returns the raw rows the financial reports are computed
// from. All ranges are inclusive on both ends.
type ReportRepository interface {
	ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]models.Payment, error)
	ListExpensesBetween(ctx context.Context, from, to time.Time) ([]models.FinancialTransaction, error)
	ListPartUsageBetween(ctx context.Context, from, to time.Time) ([]PartUsage, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_date BETWEEN ? AND ?", models.PaymentCompleted, from, to).
		Order("payment_date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *reportRepo) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]models.FinancialTransaction, error) {
	var txs []models.FinancialTransaction
	err := r.db.WithContext(ctx).
		Where("transaction_type = ? AND transaction_date BETWEEN ? AND ?", models.TransactionExpense, from, to).
		Order("transaction_date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *reportRepo) ListPartUsageBetween(ctx context.Context, from, to time.Time) ([]PartUsage, error) {
	var rows []PartUsage
	err := r.db.WithContext(ctx).Table("service_parts").
		Select("spare_parts.name AS part_name, service_parts.quantity, service_parts.unit_cost, services.service_date").
		Joins("JOIN services ON services.id = service_parts.service_id").
		Joins("JOIN spare_parts ON spare_parts.id = service_parts.spare_part_id").
		Where("services.service_date BETWEEN ? AND ?", from, to).
		Order("services.service_date ASC").
		Scan(&rows).Error
	return rows, err
}
