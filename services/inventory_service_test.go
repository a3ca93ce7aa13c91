package services

import (
	"context"
	"errors"
	"testing"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStock_LowStockRestock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	part := env.seedPart(t, "Kampas Rem Depan", 3, 5, 40000, 55000)

	low, err := env.inventory.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, part.ID, low[0].ID)

	updated, err := env.inventory.AdjustStock(ctx, part.ID, 5, models.MovementIn, "Restok supplier")
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Stock)

	low, err = env.inventory.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low)

	movements, err := env.inventory.ListMovements(ctx, part.ID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementIn, movements[0].MovementType)
	assert.Equal(t, 5, movements[0].Quantity)
	assert.Equal(t, 3, movements[0].StockBefore)
	assert.Equal(t, 8, movements[0].StockAfter)
	require.NotNil(t, movements[0].Notes)
	assert.Equal(t, "Restok supplier", *movements[0].Notes)
}

func TestAdjustStock_NeverGoesNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	part := env.seedPart(t, "Busi NGK", 2, 1, 15000, 25000)

	_, err := env.inventory.AdjustStock(ctx, part.ID, -3, models.MovementOut, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	stored, err := env.inventory.GetSparePart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)
	assert.Empty(t, env.st.movements)

	// Taking exactly what is left is fine.
	updated, err := env.inventory.AdjustStock(ctx, part.ID, -2, models.MovementOut, "")
	require.NoError(t, err)
	assert.Zero(t, updated.Stock)
}

func TestAdjustStock_RejectsMalformedMovement(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "Oli Mesin 1L", 10, 2, 45000, 60000)

	cases := []struct {
		name         string
		delta        int
		movementType string
	}{
		{"zero delta", 0, models.MovementIn},
		{"in with negative delta", -1, models.MovementIn},
		{"out with positive delta", 1, models.MovementOut},
		{"unknown type", 1, "transfer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.inventory.AdjustStock(context.Background(), part.ID, tc.delta, tc.movementType, "")
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
	assert.Equal(t, 10, env.st.parts[part.ID].Stock)
}

func TestAdjustStock_UnknownPart(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.inventory.AdjustStock(context.Background(), uuid.New(), 1, models.MovementIn, "")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "spare part", notFound.Entity)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateSparePart_OpeningStockIsLedgered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	part, err := env.inventory.CreateSparePart(ctx, SparePartInput{
		Name:          "Filter Udara",
		PurchasePrice: idr(30000),
		SalePrice:     idr(45000),
		Stock:         10,
		MinStock:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, part.Stock)
	assert.Equal(t, "General", part.Category)

	require.Len(t, env.st.movements, 1)
	m := env.st.movements[0]
	assert.Equal(t, 0, m.StockBefore)
	assert.Equal(t, 10, m.StockAfter)
	require.NotNil(t, m.Notes)
	assert.Equal(t, "Stok awal", *m.Notes)
}

func TestCreateSparePart_Validation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]SparePartInput{
		"missing name":     {PurchasePrice: idr(1), SalePrice: idr(1)},
		"negative price":   {Name: "X", PurchasePrice: idr(-1), SalePrice: idr(1)},
		"negative stock":   {Name: "X", Stock: -1},
		"negative minimum": {Name: "X", MinStock: -2},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.inventory.CreateSparePart(context.Background(), in)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestUpdateSparePart_LeavesStockAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	part := env.seedPart(t, "Aki GS", 4, 2, 350000, 450000)

	updated, err := env.inventory.UpdateSparePart(ctx, part.ID, SparePartInput{
		Name:          "Aki GS Astra",
		Category:      "Kelistrikan",
		PurchasePrice: idr(360000),
		SalePrice:     idr(470000),
		Stock:         99,
		MinStock:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Aki GS Astra", updated.Name)

	stored := env.st.parts[part.ID]
	assert.Equal(t, 4, stored.Stock)
	assert.Equal(t, "Kelistrikan", stored.Category)
	assert.True(t, idr(360000).Equal(stored.PurchasePrice))
}

func TestListSpareParts_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.seedPart(t, "Oli Mesin 1L", 10, 2, 45000, 60000)
	env.seedPart(t, "Oli Gardan", 10, 2, 20000, 30000)
	env.seedPart(t, "Busi", 10, 2, 15000, 25000)

	parts, err := env.inventory.ListSpareParts(context.Background(), repository.SparePartFilter{Search: "oli"})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "Oli Gardan", parts[0].Name)
}
