package repository

import (
	"context"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SparePartFilter struct {
	Search   string
	Category string
}

// SparePartRepository defines data access for spare parts. Methods with a Tx
// suffix run on the caller's transaction.
type SparePartRepository interface {
	Create(ctx context.Context, p *models.SparePart) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SparePart, error)
	List(ctx context.Context, filter SparePartFilter) ([]models.SparePart, error)
	ListLowStock(ctx context.Context) ([]models.SparePart, error)
	Update(ctx context.Context, p *models.SparePart) error
	Delete(ctx context.Context, id uuid.UUID) error

	// LockByIDTx reads the part and holds a row lock until the tx ends.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*models.SparePart, error)
	// AdjustStockTx adds delta to stock unless the result would be negative.
	// It reports false when no row was changed.
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) (bool, error)
}

type sparePartRepo struct{ db *gorm.DB }

func NewSparePartRepository(db *gorm.DB) SparePartRepository { return &sparePartRepo{db: db} }

func (r *sparePartRepo) Create(ctx context.Context, p *models.SparePart) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *sparePartRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.SparePart, error) {
	var p models.SparePart
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *sparePartRepo) List(ctx context.Context, filter SparePartFilter) ([]models.SparePart, error) {
	q := r.db.WithContext(ctx).Model(&models.SparePart{})
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	var parts []models.SparePart
	err := q.Order("name ASC").Find(&parts).Error
	return parts, err
}

func (r *sparePartRepo) ListLowStock(ctx context.Context) ([]models.SparePart, error) {
	var parts []models.SparePart
	err := r.db.WithContext(ctx).
		Where("stock < min_stock").
		Order("name ASC").
		Find(&parts).Error
	return parts, err
}

func (r *sparePartRepo) Update(ctx context.Context, p *models.SparePart) error {
	return r.db.WithContext(ctx).Model(p).Select(
		"name", "category", "purchase_price", "sale_price", "min_stock", "supplier",
	).Updates(p).Error
}

func (r *sparePartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.SparePart{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sparePartRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*models.SparePart, error) {
	var p models.SparePart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *sparePartRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	res := tx.Model(&models.SparePart{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	return res.RowsAffected == 1, res.Error
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *models.StockMovement) error
	ListByPart(ctx context.Context, partID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *models.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListByPart(ctx context.Context, partID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("spare_part_id = ?", partID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
