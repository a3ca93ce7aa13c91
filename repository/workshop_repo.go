package repository

import (
	"context"
	"errors"

	"bengkel-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WorkshopRepository interface {
	// Get returns the workshop profile, creating a default one on first use.
	Get(ctx context.Context) (*models.Workshop, error)
	Save(ctx context.Context, w *models.Workshop) error
}

type workshopRepo struct {
	db         *gorm.DB
	defaultTax decimal.Decimal
}

// NewWorkshopRepository seeds a missing profile with defaultTax as its tax rate.
func NewWorkshopRepository(db *gorm.DB, defaultTax decimal.Decimal) WorkshopRepository {
	return &workshopRepo{db: db, defaultTax: defaultTax}
}

func (r *workshopRepo) Get(ctx context.Context) (*models.Workshop, error) {
	var w models.Workshop
	err := r.db.WithContext(ctx).Order("updated_at ASC").First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w = models.Workshop{
			Name:             "Bengkel",
			DefaultTaxRate:   r.defaultTax,
			LowStockAlerts:   true,
			SMSNotifications: true,
		}
		err = r.db.WithContext(ctx).Create(&w).Error
	}
	return &w, err
}

func (r *workshopRepo) Save(ctx context.Context, w *models.Workshop) error {
	return r.db.WithContext(ctx).Save(w).Error
}

type NotificationRepository interface {
	Create(ctx context.Context, l *models.NotificationLog) error
	ListRecent(ctx context.Context, limit int) ([]models.NotificationLog, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, l *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *notificationRepo) ListRecent(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var logs []models.NotificationLog
	err := r.db.WithContext(ctx).Order("sent_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
