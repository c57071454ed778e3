package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.StockRepository             = (*stockRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

type stockRepo struct{ a access }

func (r *stockRepo) Get(_ context.Context, key entity.StockKey) (*entity.InventoryStock, error) {
	var out *entity.InventoryStock
	err := r.a.do(func(st *state) error {
		if s, ok := st.stock[key]; ok {
			out = &s
			return nil
		}
		out = entity.EmptyStock(key)
		return nil
	})
	return out, err
}

func (r *stockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryStock, error) {
	return r.Get(ctx, key)
}

func (r *stockRepo) Upsert(_ context.Context, stock *entity.InventoryStock) error {
	return r.a.do(func(st *state) error {
		st.stock[stock.Key()] = *stock
		return nil
	})
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryStock, error) {
	var out []*entity.InventoryStock
	err := r.a.do(func(st *state) error {
		for _, s := range st.stock {
			if s.ProductID == productID {
				out = append(out, &s)
			}
		}
		return nil
	})
	sortStock(out)
	return out, err
}

func (r *stockRepo) ListBelowReorderPoint(_ context.Context, warehouseID string) ([]*entity.InventoryStock, error) {
	var out []*entity.InventoryStock
	err := r.a.do(func(st *state) error {
		for _, s := range st.stock {
			if warehouseID != "" && s.WarehouseID != warehouseID {
				continue
			}
			if s.ReorderPoint.IsPositive() && s.Available().LessThan(s.ReorderPoint) {
				out = append(out, &s)
			}
		}
		return nil
	})
	sortStock(out)
	return out, err
}

func sortStock(rows []*entity.InventoryStock) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key().Less(rows[j].Key()) })
}

type movementRepo struct{ a access }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.a.do(func(st *state) error {
		if !m.QuantityAfter.Equal(m.QuantityBefore.Add(m.Quantity)) {
			return fmt.Errorf("%w: movimiento %s descuadrado", domain.ErrInvalidInput, m.ID)
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) ListByReference(_ context.Context, reference string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.a.do(func(st *state) error {
		for _, m := range st.movements {
			if m.Reference == reference {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) ListByProduct(_ context.Context, productID, variantID string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.a.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID != productID || (variantID != "" && m.VariantID != variantID) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}
