package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// StockLevel stock efectivo de un producto o variante, sumado en todas las bodegas.
type StockLevel struct {
	ProductID string
	VariantID string
	Quantity  decimal.Decimal
	Available decimal.Decimal
}

// StockQueryUseCase consultas de stock e historial de movimientos (fuera de transacción).
type StockQueryUseCase struct {
	products  repository.ProductRepository
	stock     repository.StockRepository
	movements repository.InventoryMovementRepository
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(
	products repository.ProductRepository,
	stock repository.StockRepository,
	movements repository.InventoryMovementRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{products: products, stock: stock, movements: movements}
}

// GetStock devuelve cantidad y disponible. Para un producto con variantes y variantID vacío
// el total se recalcula sumando las filas de sus variantes; nunca se guarda un total duplicado.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, productID, variantID string) (StockLevel, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return StockLevel{}, err
	}
	if product == nil {
		return StockLevel{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if variantID != "" {
		if _, _, err := ResolveProduct(ctx, uc.products, productID, variantID); err != nil {
			return StockLevel{}, err
		}
	}

	rows, err := uc.stock.ListByProduct(ctx, productID)
	if err != nil {
		return StockLevel{}, err
	}
	level := StockLevel{ProductID: productID, VariantID: variantID, Quantity: decimal.Zero, Available: decimal.Zero}
	for _, r := range rows {
		if !countsTowards(product, variantID, r) {
			continue
		}
		level.Quantity = level.Quantity.Add(r.Quantity)
		level.Available = level.Available.Add(r.Available())
	}
	return level, nil
}

func countsTowards(p *entity.Product, variantID string, row *entity.InventoryStock) bool {
	if variantID != "" {
		return row.VariantID == variantID
	}
	if p.HasVariants {
		return row.VariantID != ""
	}
	return row.VariantID == ""
}

// ListMovements historial append-only del producto (variantID vacío = todas las variantes).
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, productID, variantID string) ([]*entity.InventoryMovement, error) {
	return uc.movements.ListByProduct(ctx, productID, variantID)
}

// Reconcile reconstruye la cantidad de cada clave sumando los deltas de su historial y
// devuelve las claves cuya fila de stock no coincide (vacío = auditoría correcta).
func (uc *StockQueryUseCase) Reconcile(ctx context.Context, productID string) ([]entity.StockKey, error) {
	movs, err := uc.movements.ListByProduct(ctx, productID, "")
	if err != nil {
		return nil, err
	}
	replayed := make(map[entity.StockKey]decimal.Decimal)
	for _, m := range movs {
		replayed[m.Key()] = replayed[m.Key()].Add(m.Quantity)
	}
	rows, err := uc.stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	var mismatched []entity.StockKey
	seen := make(map[entity.StockKey]bool, len(rows))
	for _, r := range rows {
		seen[r.Key()] = true
		if !r.Quantity.Equal(replayed[r.Key()]) {
			mismatched = append(mismatched, r.Key())
		}
	}
	for k, q := range replayed {
		if !seen[k] && !q.IsZero() {
			mismatched = append(mismatched, k)
		}
	}
	return mismatched, nil
}
