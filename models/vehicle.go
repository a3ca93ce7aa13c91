package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Vehicle struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	PlateNumber string     `gorm:"uniqueIndex;not null" json:"plateNumber"`
	Brand       string     `gorm:"not null" json:"brand"`
	Model       string     `gorm:"not null" json:"model"`
	Year        int        `json:"year"`
	LastService *time.Time `json:"lastService"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.PlateNumber = NormalizePlate(v.PlateNumber)
	return
}

// NormalizePlate upper-cases a plate number and strips whitespace, so
// "b 1234 xyz" and "B1234XYZ" collide on the unique index.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}
