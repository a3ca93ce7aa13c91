package repository

import (
	"context"
	"time"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, search string) ([]models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Preload("Vehicles").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, search string) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Preload("Vehicles")
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name ILIKE ? OR phone ILIKE ?", like, like)
	}
	var customers []models.Customer
	err := q.Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) Update(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Model(c).
		Select("name", "phone", "address", "email").
		Updates(c).Error
}

func (r *customerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *customerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error
	return n, err
}

type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	List(ctx context.Context, customerID *uuid.UUID) ([]models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetLastService(ctx context.Context, id uuid.UUID, at time.Time) error
}

type vehicleRepo struct{ db *gorm.DB }

func NewVehicleRepository(db *gorm.DB) VehicleRepository { return &vehicleRepo{db: db} }

func (r *vehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.WithContext(ctx).Preload("Customer").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *vehicleRepo) List(ctx context.Context, customerID *uuid.UUID) ([]models.Vehicle, error) {
	q := r.db.WithContext(ctx).Preload("Customer")
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID)
	}
	var vehicles []models.Vehicle
	err := q.Order("plate_number ASC").Find(&vehicles).Error
	return vehicles, err
}

func (r *vehicleRepo) Update(ctx context.Context, v *models.Vehicle) error {
	v.PlateNumber = models.NormalizePlate(v.PlateNumber)
	return r.db.WithContext(ctx).Model(v).
		Select("customer_id", "plate_number", "brand", "model", "year").
		Updates(v).Error
}

func (r *vehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Vehicle{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *vehicleRepo) SetLastService(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ?", id).
		Update("last_service", at).Error
}
