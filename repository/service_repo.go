package repository

import (
	"context"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceFilter struct {
	Status     string
	CustomerID *uuid.UUID
	VehicleID  *uuid.UUID
	Limit      int
}

// ServiceRepository stores repair jobs and the parts they consumed.
type ServiceRepository interface {
	Create(ctx context.Context, s *models.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, filter ServiceFilter) ([]models.Service, error)
	Update(ctx context.Context, s *models.Service) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)

	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Service, error)
	CreatePartTx(tx *gorm.DB, p *models.ServicePart) error
}

type serviceRepo struct{ db *gorm.DB }

func NewServiceRepository(db *gorm.DB) ServiceRepository { return &serviceRepo{db: db} }

func (r *serviceRepo) Create(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *serviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Preload("Parts.SparePart").
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *serviceRepo) List(ctx context.Context, filter ServiceFilter) ([]models.Service, error) {
	q := r.db.WithContext(ctx).Preload("Customer").Preload("Vehicle")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var services []models.Service
	err := q.Order("service_date DESC").Find(&services).Error
	return services, err
}

func (r *serviceRepo) Update(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Model(s).
		Select("complaint", "cost", "mechanic", "service_date", "notes").
		Updates(s).Error
}

func (r *serviceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Service{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *serviceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *serviceRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Service{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *serviceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	err := tx.Preload("Customer").Preload("Vehicle").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *serviceRepo) CreatePartTx(tx *gorm.DB, p *models.ServicePart) error {
	return tx.Create(p).Error
}
