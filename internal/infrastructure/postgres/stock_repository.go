package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `product_id, variant_id, warehouse_id, quantity, reserved, reorder_point, reorder_qty, last_movement_id, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.InventoryStock, error) {
	var s entity.InventoryStock
	err := row.Scan(&s.ProductID, &s.VariantID, &s.WarehouseID, &s.Quantity, &s.Reserved,
		&s.ReorderPoint, &s.ReorderQty, &s.LastMovementID, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock actual de la clave; una clave sin fila vale cero.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.InventoryStock, error) {
	query := `SELECT ` + stockColumns + ` FROM inventory_stock
		WHERE product_id = $1 AND variant_id = $2 AND warehouse_id = $3`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ProductID, key.VariantID, key.WarehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.EmptyStock(key), nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si la fila no existe
// la crea en cero antes de bloquearla: dos transacciones sobre una clave nueva también se serializan.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryStock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_stock (product_id, variant_id, warehouse_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, variant_id, warehouse_id) DO NOTHING`,
		key.ProductID, key.VariantID, key.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	query := `SELECT ` + stockColumns + ` FROM inventory_stock
		WHERE product_id = $1 AND variant_id = $2 AND warehouse_id = $3
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ProductID, key.VariantID, key.WarehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la fila de stock de la clave.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.InventoryStock) error {
	query := `
		INSERT INTO inventory_stock (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (product_id, variant_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved = EXCLUDED.reserved,
			reorder_point = EXCLUDED.reorder_point, reorder_qty = EXCLUDED.reorder_qty,
			last_movement_id = EXCLUDED.last_movement_id, updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.VariantID, stock.WarehouseID, stock.Quantity, stock.Reserved,
		stock.ReorderPoint, stock.ReorderQty, stock.LastMovementID,
	)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.StockError{
				LineIndex: -1,
				ProductID: stock.ProductID,
				VariantID: stock.VariantID,
				Available: stock.Available(),
			}
		}
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByProduct filas del producto (todas sus variantes y bodegas).
func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryStock, error) {
	return r.list(ctx, `SELECT `+stockColumns+` FROM inventory_stock WHERE product_id = $1
		ORDER BY product_id, variant_id, warehouse_id`, productID)
}

// ListBelowReorderPoint filas con punto de reorden y disponible por debajo de él.
// warehouseID vacío considera todas las bodegas.
func (r *StockRepo) ListBelowReorderPoint(ctx context.Context, warehouseID string) ([]*entity.InventoryStock, error) {
	return r.list(ctx, `SELECT `+stockColumns+` FROM inventory_stock
		WHERE reorder_point > 0 AND quantity - reserved < reorder_point
			AND ($1 = '' OR warehouse_id = $1)
		ORDER BY product_id, variant_id, warehouse_id`, warehouseID)
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryStock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
