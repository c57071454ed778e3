package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/inventory"
)

func TestWeightedAverageCost_Promedio(t *testing.T) {
	// 10 u a $1.000 + 30 u a $2.000 = 70.000 / 40 = 1.750
	got := inventory.WeightedAverageCost(
		decimal.NewFromInt(10), decimal.NewFromInt(1000),
		decimal.NewFromInt(30), decimal.NewFromInt(2000),
	)
	assert.Equal(t, "1750", got.String())
}

func TestWeightedAverageCost_SinStockPrevio(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, decimal.NewFromInt(999), decimal.NewFromInt(5), decimal.NewFromInt(1200))
	assert.True(t, got.Equal(decimal.NewFromInt(1200)))

	got = inventory.WeightedAverageCost(decimal.NewFromInt(-2), decimal.NewFromInt(999), decimal.NewFromInt(5), decimal.NewFromInt(800))
	assert.True(t, got.Equal(decimal.NewFromInt(800)))
}

func TestMovementCost_ValorAbsoluto(t *testing.T) {
	m := entity.InventoryMovement{Quantity: decimal.NewFromInt(-3), UnitCost: decimal.RequireFromString("1250.555")}
	assert.Equal(t, "3751.67", inventory.MovementCost(m).StringFixed(2))
}
