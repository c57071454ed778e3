package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// SaleRepository persistencia de ventas. Create guarda cabecera, líneas y pagos.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// Cancel único cambio permitido sobre una venta confirmada.
	Cancel(ctx context.Context, id string, c entity.SaleCancellation) error
}
