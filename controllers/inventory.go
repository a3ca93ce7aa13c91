package controllers

import (
	"net/http"
	"strconv"

	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SparePartInput struct {
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" binding:"gte=0"`
	SalePrice     decimal.Decimal `json:"salePrice" binding:"gte=0"`
	Stock         int             `json:"stock" binding:"gte=0"`
	MinStock      int             `json:"minStock" binding:"gte=0"`
	Supplier      *string         `json:"supplier"`
}

func (in SparePartInput) toService() services.SparePartInput {
	return services.SparePartInput{
		Name:          in.Name,
		Category:      in.Category,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		Stock:         in.Stock,
		MinStock:      in.MinStock,
		Supplier:      in.Supplier,
	}
}

type AdjustStockInput struct {
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	MovementType string `json:"movementType" binding:"required,oneof=in out"`
	Notes        string `json:"notes"`
}

type InventoryController struct {
	inventory *services.InventoryService
}

func NewInventoryController(inventory *services.InventoryService) *InventoryController {
	return &InventoryController{inventory: inventory}
}

func (ic *InventoryController) CreateSparePart(c *gin.Context) {
	var input SparePartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	part, err := ic.inventory.CreateSparePart(c.Request.Context(), input.toService())
	if err != nil {
		respondServiceError(c, "CreateSparePart", err)
		return
	}
	c.JSON(http.StatusCreated, part)
}

func (ic *InventoryController) GetSpareParts(c *gin.Context) {
	parts, err := ic.inventory.ListSpareParts(c.Request.Context(), repository.SparePartFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		respondServiceError(c, "GetSpareParts", err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (ic *InventoryController) GetSparePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	part, err := ic.inventory.GetSparePart(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetSparePart", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (ic *InventoryController) UpdateSparePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input SparePartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	part, err := ic.inventory.UpdateSparePart(c.Request.Context(), id, input.toService())
	if err != nil {
		respondServiceError(c, "UpdateSparePart", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (ic *InventoryController) DeleteSparePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ic.inventory.DeleteSparePart(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteSparePart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spare part deleted"})
}

// AdjustStock takes a positive quantity; the movement type gives the sign.
func (ic *InventoryController) AdjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	delta := input.Quantity
	if input.MovementType == models.MovementOut {
		delta = -delta
	}
	part, err := ic.inventory.AdjustStock(c.Request.Context(), id, delta, input.MovementType, input.Notes)
	if err != nil {
		respondServiceError(c, "AdjustStock", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (ic *InventoryController) GetLowStock(c *gin.Context) {
	parts, err := ic.inventory.ListLowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetLowStock", err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (ic *InventoryController) GetMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	movements, err := ic.inventory.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		respondServiceError(c, "GetMovements", err)
		return
	}
	c.JSON(http.StatusOK, movements)
}
