package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ServicePending    = "pending"
	ServiceInProgress = "in-progress"
	ServiceCompleted  = "completed"
)

// Service is a repair or maintenance job on a customer's vehicle.
type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"customerId"`
	VehicleID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"vehicleId"`
	Complaint   string          `gorm:"type:text;not null" json:"complaint"`
	Cost        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`
	Mechanic    *string         `json:"mechanic"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ServiceDate time.Time       `gorm:"not null;index" json:"serviceDate"`
	Notes       *string         `json:"notes"`

	Customer *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Vehicle  *Vehicle      `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Parts    []ServicePart `gorm:"foreignKey:ServiceID" json:"parts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = ServicePending
	}
	return
}

func IsValidServiceStatus(status string) bool {
	switch status {
	case ServicePending, ServiceInProgress, ServiceCompleted:
		return true
	}
	return false
}

// ServicePart records a spare part consumed by a service. UnitPrice is what
// the customer was charged, UnitCost is the purchase price at the time of use.
type ServicePart struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"serviceId"`
	SparePartID uuid.UUID       `gorm:"type:uuid;index;not null" json:"sparePartId"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	UnitCost    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"unitCost"`

	SparePart *SparePart `gorm:"foreignKey:SparePartID" json:"sparePart,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (p *ServicePart) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
