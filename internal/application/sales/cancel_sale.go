package sales

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// CancelSale anula una venta COMPLETED: movimientos RETURN por cada línea, la CreditSale
// vinculada pasa a CANCELLED (sale del saldo del cliente) y la venta a CANCELLED.
// Es atómica e irreversible.
func (uc *SaleUseCase) CancelSale(ctx context.Context, req dto.CancelSaleRequest) (*entity.Sale, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var (
		cancelled *entity.Sale
		credit    *entity.CreditSale
	)
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		credit = nil
		now := uc.clock.Now()

		sale, err := tx.Sales.GetForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		if sale.Status != entity.SaleStatusCompleted {
			return fmt.Errorf("%w: la venta %s está %s", domain.ErrInvalidState, sale.ID, sale.Status)
		}

		credit, err = tx.Credits.GetBySaleID(ctx, sale.ID)
		if err != nil {
			return err
		}
		if credit != nil {
			// Mismo orden de bloqueo que CreateSale: cliente antes que stock
			if _, err := tx.Customers.GetForUpdate(ctx, credit.CustomerID); err != nil {
				return err
			}
		}

		items := make([]entity.SaleItem, len(sale.Items))
		copy(items, sale.Items)
		sort.SliceStable(items, func(i, j int) bool {
			return stockKey(sale, items[i]).Less(stockKey(sale, items[j]))
		})
		for _, it := range items {
			product, err := tx.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			unitCost := it.UnitPrice
			if product != nil {
				unitCost = product.Cost
			}
			if _, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, inventory.MovementInput{
				Key:       stockKey(sale, it),
				Type:      entity.MovementReturn,
				Delta:     it.Quantity,
				UnitCost:  unitCost,
				Reference: sale.ID,
				Reason:    "Anulación: " + req.Reason,
				CreatedBy: req.UserID,
			}); err != nil {
				return err
			}
		}

		if credit != nil && credit.Status != entity.CreditCancelled {
			st := entity.CreditCancelled
			if err := tx.Credits.Update(ctx, credit.ID, entity.CreditSalePatch{Status: &st, UpdatedAt: now}); err != nil {
				return err
			}
			if credit.PaidAmount.IsPositive() {
				uc.log.Warn().
					Str("sale_id", sale.ID).
					Str("credit_sale_id", credit.ID).
					Str("paid", credit.PaidAmount.StringFixed(2)).
					Msg("fiado anulado con abonos registrados; el reembolso se gestiona por fuera")
			}
		}

		c := entity.SaleCancellation{Reason: req.Reason, CancelledBy: req.UserID, CancelledAt: now}
		if err := tx.Sales.Cancel(ctx, sale.ID, c); err != nil {
			return err
		}
		s := c.Apply(*sale)
		cancelled = &s
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credit != nil {
		uc.invalidate(ctx, credit.CustomerID)
	}
	uc.log.Info().Str("sale_id", cancelled.ID).Str("reason", req.Reason).Msg("venta anulada")
	return cancelled, nil
}

func stockKey(sale *entity.Sale, it entity.SaleItem) entity.StockKey {
	return entity.StockKey{ProductID: it.ProductID, VariantID: it.VariantID, WarehouseID: sale.WarehouseID}
}
