package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Persisted invoice lifecycle. "partial" is never stored, see DisplayStatus.
const (
	InvoiceDraft   = "draft"
	InvoiceIssued  = "issued"
	InvoicePartial = "partial"
	InvoicePaid    = "paid"
	InvoiceVoid    = "void"
)

const (
	ItemTypeService   = "service"
	ItemTypeSparePart = "sparepart"
)

type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNumber string    `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	ServiceID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"serviceId"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	VehicleID     uuid.UUID `gorm:"type:uuid;index;not null" json:"vehicleId"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"taxRate"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"taxAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discountAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`

	Status    string    `gorm:"type:varchar(10);not null;default:'draft';index" json:"status"`
	IssueDate time.Time `gorm:"not null;index" json:"issueDate"`
	DueDate   time.Time `gorm:"not null" json:"dueDate"`
	Notes     *string   `json:"notes"`
	Version   int       `gorm:"not null;default:0" json:"version"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// DisplayStatus derives what the invoice should show given the amount paid
// so far. Draft and void are shown as stored.
func (i Invoice) DisplayStatus(paid decimal.Decimal) string {
	switch i.Status {
	case InvoiceDraft, InvoiceVoid:
		return i.Status
	}
	if paid.GreaterThanOrEqual(i.TotalAmount) {
		return InvoicePaid
	}
	if paid.IsPositive() {
		return InvoicePartial
	}
	return InvoiceIssued
}

type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"invoiceId"`
	ItemType    string          `gorm:"type:varchar(10);not null" json:"itemType"`
	ItemID      *uuid.UUID      `gorm:"type:uuid" json:"itemId"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalPrice"`

	CreatedAt time.Time `json:"createdAt"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
