package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MovementIn  = "in"
	MovementOut = "out"
)

type SparePart struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"not null;index" json:"name"`
	Category      string          `gorm:"not null;default:'General'" json:"category"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchasePrice"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"salePrice"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	MinStock      int             `gorm:"not null;default:0;check:min_stock >= 0" json:"minStock"`
	Supplier      *string         `json:"supplier"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *SparePart) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p SparePart) IsLowStock() bool {
	return p.Stock < p.MinStock
}

// StockMovement is an append-only audit entry. Quantity is always positive;
// the direction lives in MovementType.
type StockMovement struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SparePartID  uuid.UUID `gorm:"type:uuid;index;not null" json:"sparePartId"`
	MovementType string    `gorm:"type:varchar(8);not null" json:"movementType"`
	Quantity     int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	StockBefore  int       `json:"stockBefore"`
	StockAfter   int       `json:"stockAfter"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
