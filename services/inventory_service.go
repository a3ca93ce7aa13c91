package services

import (
	"context"
	"fmt"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SparePartInput struct {
	Name          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Stock         int
	MinStock      int
	Supplier      *string
}

// InventoryService owns spare-part stock levels. Stock only changes through
// AdjustStock, and every change leaves a StockMovement behind.
type InventoryService struct {
	db        *gorm.DB
	parts     repository.SparePartRepository
	movements repository.StockMovementRepository
	logger    *logrus.Logger
}

func NewInventoryService(
	db *gorm.DB,
	parts repository.SparePartRepository,
	movements repository.StockMovementRepository,
	logger *logrus.Logger,
) *InventoryService {
	return &InventoryService{db: db, parts: parts, movements: movements, logger: logger}
}

// AdjustStock applies delta to a part's stock: positive with movementType
// "in", negative with "out". A change that would leave stock below zero is
// rejected with a ConflictError and nothing is written.
func (s *InventoryService) AdjustStock(ctx context.Context, partID uuid.UUID, delta int, movementType, notes string) (*models.SparePart, error) {
	if err := validateMovement(delta, movementType); err != nil {
		return nil, err
	}

	var part *models.SparePart
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		part, err = s.adjustStockTx(tx, partID, delta, movementType, notes)
		return err
	})
	if err != nil {
		return nil, storeErr("adjust stock", err)
	}

	s.logger.WithFields(logrus.Fields{
		"sparePartId": partID,
		"delta":       delta,
		"stock":       part.Stock,
	}).Info("stock adjusted")
	return part, nil
}

func validateMovement(delta int, movementType string) error {
	switch {
	case delta == 0:
		return invalid(ErrInvalidInput, "stock delta must not be zero")
	case movementType == models.MovementIn && delta < 0:
		return invalid(ErrInvalidInput, "an \"in\" movement needs a positive delta")
	case movementType == models.MovementOut && delta > 0:
		return invalid(ErrInvalidInput, "an \"out\" movement needs a negative delta")
	case movementType != models.MovementIn && movementType != models.MovementOut:
		return invalid(ErrInvalidInput, "movement type %q", movementType)
	}
	return nil
}

// adjustStockTx is AdjustStock on the caller's transaction, used by the
// invoice builder so the decrement commits or rolls back with the invoice.
func (s *InventoryService) adjustStockTx(tx *gorm.DB, partID uuid.UUID, delta int, movementType, notes string) (*models.SparePart, error) {
	part, err := s.parts.LockByIDTx(tx, partID)
	if err != nil {
		return nil, lookupErr("spare part", partID, err)
	}

	before := part.Stock
	if before+delta < 0 {
		return nil, conflict(ErrInsufficientStock, "%s has %d in stock, %d requested", part.Name, before, -delta)
	}

	ok, err := s.parts.AdjustStockTx(tx, partID, delta)
	if err != nil {
		return nil, storeErr("update stock", err)
	}
	if !ok {
		return nil, conflict(ErrInsufficientStock, "%s stock changed while adjusting", part.Name)
	}
	part.Stock = before + delta

	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	movement := &models.StockMovement{
		SparePartID:  partID,
		MovementType: movementType,
		Quantity:     quantity,
		StockBefore:  before,
		StockAfter:   part.Stock,
	}
	if notes != "" {
		movement.Notes = &notes
	}
	if err := s.movements.CreateTx(tx, movement); err != nil {
		return nil, storeErr("record stock movement", err)
	}
	return part, nil
}

// ListLowStock returns every part whose stock is below its minimum, by name.
func (s *InventoryService) ListLowStock(ctx context.Context) ([]models.SparePart, error) {
	parts, err := s.parts.ListLowStock(ctx)
	if err != nil {
		return nil, storeErr("list low stock", err)
	}
	return parts, nil
}

func (s *InventoryService) CreateSparePart(ctx context.Context, in SparePartInput) (*models.SparePart, error) {
	if err := validatePartInput(in); err != nil {
		return nil, err
	}

	part := &models.SparePart{
		Name:          in.Name,
		Category:      in.Category,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		MinStock:      in.MinStock,
		Supplier:      in.Supplier,
	}
	if part.Category == "" {
		part.Category = "General"
	}
	if err := s.parts.Create(ctx, part); err != nil {
		return nil, storeErr("create spare part", err)
	}

	// Opening stock goes through the ledger so movements reconcile with stock.
	if in.Stock > 0 {
		adjusted, err := s.AdjustStock(ctx, part.ID, in.Stock, models.MovementIn, "Stok awal")
		if err != nil {
			return nil, err
		}
		part = adjusted
	}
	return part, nil
}

func validatePartInput(in SparePartInput) error {
	switch {
	case in.Name == "":
		return invalid(ErrInvalidInput, "name is required")
	case in.PurchasePrice.IsNegative() || in.SalePrice.IsNegative():
		return invalid(ErrInvalidInput, "prices must not be negative")
	case !minorUnits(in.PurchasePrice) || !minorUnits(in.SalePrice):
		return invalid(ErrAmountPrecision, "prices must have at most two decimal places")
	case in.Stock < 0 || in.MinStock < 0:
		return invalid(ErrInvalidInput, "stock and minimum stock must not be negative")
	}
	return nil
}

func (s *InventoryService) GetSparePart(ctx context.Context, id uuid.UUID) (*models.SparePart, error) {
	part, err := s.parts.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("spare part", id, err)
	}
	return part, nil
}

func (s *InventoryService) ListSpareParts(ctx context.Context, filter repository.SparePartFilter) ([]models.SparePart, error) {
	parts, err := s.parts.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list spare parts", err)
	}
	return parts, nil
}

// UpdateSparePart changes the descriptive fields and prices of a part. Stock
// is ignored here; use AdjustStock.
func (s *InventoryService) UpdateSparePart(ctx context.Context, id uuid.UUID, in SparePartInput) (*models.SparePart, error) {
	in.Stock = 0
	if err := validatePartInput(in); err != nil {
		return nil, err
	}
	part, err := s.GetSparePart(ctx, id)
	if err != nil {
		return nil, err
	}
	part.Name = in.Name
	if in.Category != "" {
		part.Category = in.Category
	}
	part.PurchasePrice = in.PurchasePrice
	part.SalePrice = in.SalePrice
	part.MinStock = in.MinStock
	part.Supplier = in.Supplier
	if err := s.parts.Update(ctx, part); err != nil {
		return nil, storeErr("update spare part", err)
	}
	return part, nil
}

func (s *InventoryService) DeleteSparePart(ctx context.Context, id uuid.UUID) error {
	if err := s.parts.Delete(ctx, id); err != nil {
		return lookupErr("spare part", id, err)
	}
	return nil
}

func (s *InventoryService) ListMovements(ctx context.Context, partID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if _, err := s.GetSparePart(ctx, partID); err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByPart(ctx, partID, limit)
	if err != nil {
		return nil, storeErr("list stock movements", err)
	}
	return movements, nil
}

func usageNote(customer, invoiceNumber string) string {
	return fmt.Sprintf("Digunakan untuk servis %s - Invoice %s", customer, invoiceNumber)
}
