package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar inventory_stock por clave.
// Una clave sin fila devuelve entity.EmptyStock, nunca ErrNotFound.
type StockRepository interface {
	Get(ctx context.Context, key entity.StockKey) (*entity.InventoryStock, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryStock, error)
	Upsert(ctx context.Context, stock *entity.InventoryStock) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryStock, error)
	// ListBelowReorderPoint filas con ReorderPoint > 0 y disponible por debajo; warehouseID vacío = todas.
	ListBelowReorderPoint(ctx context.Context, warehouseID string) ([]*entity.InventoryStock, error)
}
