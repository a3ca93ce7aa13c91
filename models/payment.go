package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentEWallet  = "ewallet"

	PaymentCompleted = "completed"
)

// Payment is append-only. The sum of completed payments for an invoice is
// its paid amount; nothing caches that figure.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"invoiceId"`
	PaymentNumber   string          `gorm:"uniqueIndex;not null" json:"paymentNumber"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null;check:amount > 0" json:"amount"`
	PaymentMethod   string          `gorm:"type:varchar(10);not null" json:"paymentMethod"`
	ReferenceNumber *string         `json:"referenceNumber"`
	Notes           *string         `json:"notes"`
	Status          string          `gorm:"type:varchar(10);not null;default:'completed'" json:"status"`
	PaymentDate     time.Time       `gorm:"not null;index" json:"paymentDate"`

	CreatedAt time.Time `json:"createdAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PaymentCompleted
	}
	return
}

func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentEWallet:
		return true
	}
	return false
}
