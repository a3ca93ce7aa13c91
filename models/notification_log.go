// models/notification_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationLowStock     = "low_stock"
	NotificationServiceReady = "service_ready"
)

type NotificationLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;index" json:"customerId"`
	ServiceID    *uuid.UUID `gorm:"type:uuid;index" json:"serviceId"`
	Type         string     `gorm:"type:varchar(20)" json:"type"` // low_stock, service_ready
	Recipient    string     `gorm:"type:varchar(40)" json:"recipient"`
	Message      string     `gorm:"type:text" json:"message"`
	Status       string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string     `gorm:"type:text" json:"errorMessage"`
	Channel      string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt       time.Time  `gorm:"index" json:"sentAt"`
}

func (r *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
