package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// ReplenishmentUseCase lista de reposición para una bodega a partir del stock bajo punto de reorden.
type ReplenishmentUseCase struct {
	stock    repository.StockRepository
	products repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stock repository.StockRepository, products repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stock: stock, products: products}
}

// BelowReorderPoint devuelve las filas con disponible bajo su punto de reorden, mayor déficit primero.
// La cantidad sugerida es ReorderQty si está definida; si no, lo necesario para llegar a 1.5 × ReorderPoint.
// warehouseID puede ser vacío para considerar todas las bodegas.
func (uc *ReplenishmentUseCase) BelowReorderPoint(ctx context.Context, warehouseID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	rows, err := uc.stock.ListBelowReorderPoint(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	factor := decimal.RequireFromString("1.5")
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(rows))
	for _, row := range rows {
		product, err := uc.products.GetByID(ctx, row.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}
		available := row.Available()
		suggested := row.ReorderQty
		if !suggested.IsPositive() {
			suggested = row.ReorderPoint.Mul(factor).Sub(available)
		}
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          row.ProductID,
			VariantID:          row.VariantID,
			WarehouseID:        row.WarehouseID,
			SKU:                product.SKU,
			ProductName:        product.Name,
			Available:          available,
			ReorderPoint:       row.ReorderPoint,
			Deficit:            row.ReorderPoint.Sub(available),
			SuggestedOrderQty:  suggested,
			UnitCost:           product.Cost,
			EstimatedOrderCost: suggested.Mul(product.Cost).Round(2),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.Deficit.Equal(b.Deficit) {
			return a.Deficit.GreaterThan(b.Deficit)
		}
		return a.SKU < b.SKU
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
