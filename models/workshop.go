package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Workshop is the single profile row of the shop running this backend.
type Workshop struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	OpeningHours   JSONB           `gorm:"type:jsonb;default:'{}'" json:"openingHours"`
	DefaultTaxRate decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"defaultTaxRate"`

	LowStockAlerts        bool `gorm:"default:true" json:"lowStockAlerts"`
	ServiceReadyNotices   bool `gorm:"default:false" json:"serviceReadyNotices"`
	WhatsAppNotifications bool `gorm:"default:false" json:"whatsAppNotifications"`
	SMSNotifications      bool `gorm:"default:true" json:"smsNotifications"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *Workshop) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
