package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, product_id, variant_id, warehouse_id, type, quantity, quantity_before, quantity_after,
	unit_cost, total_cost, reference, reason, created_at, created_by`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx). Solo inserta y lee.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	query := `INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.VariantID, m.WarehouseID, string(m.Type), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.UnitCost, m.TotalCost, m.Reference, m.Reason, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// ListByReference movimientos de un documento (ej. todos los de una venta) en orden de registro.
func (r *InventoryMovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE reference = $1 ORDER BY created_at, id`, reference)
}

// ListByProduct kardex del producto; variantID vacío incluye todas las variantes.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID, variantID string) ([]*entity.InventoryMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE product_id = $1 AND ($2 = '' OR variant_id = $2)
		ORDER BY created_at, id`, productID, variantID)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var typ string
	err := row.Scan(&m.ID, &m.ProductID, &m.VariantID, &m.WarehouseID, &typ, &m.Quantity, &m.QuantityBefore,
		&m.QuantityAfter, &m.UnitCost, &m.TotalCost, &m.Reference, &m.Reason, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}
