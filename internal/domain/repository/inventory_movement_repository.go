package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// InventoryMovementRepository persistencia append-only de movimientos de inventario.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByReference movimientos de un documento origen (ej. una venta), en orden de creación.
	ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error)
	// ListByProduct historial de un producto; variantID vacío = todas las variantes.
	ListByProduct(ctx context.Context, productID, variantID string) ([]*entity.InventoryMovement, error)
}
