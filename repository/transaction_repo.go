package repository

import (
	"context"

	"bengkel-backend/models"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *models.FinancialTransaction) error
	CreateTx(tx *gorm.DB, t *models.FinancialTransaction) error
	ListRecentExpenses(ctx context.Context, limit int) ([]models.FinancialTransaction, error)
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *models.FinancialTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, t *models.FinancialTransaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) ListRecentExpenses(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	var txs []models.FinancialTransaction
	err := r.db.WithContext(ctx).
		Where("transaction_type = ?", models.TransactionExpense).
		Order("transaction_date DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
