package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"

	CategoryServicePayment  = "service_payment"
	CategoryPaymentReceived = "payment_received"
)

// FinancialTransaction holds manual expenses and the informational income
// rows written when invoices and payments are recorded. Reports read income
// from payments, never from this table.
type FinancialTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TransactionType string          `gorm:"type:varchar(10);not null;index" json:"transactionType"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category        *string         `gorm:"index" json:"category"`
	Description     *string         `json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transactionDate"`
	ServiceID       *uuid.UUID      `gorm:"type:uuid;index" json:"serviceId"`

	CreatedAt time.Time `json:"createdAt"`
}

func (t *FinancialTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
