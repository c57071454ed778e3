package sales

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// TxRunner ejecuta fn dentro de una transacción con todos los repositorios atados a ella.
// Una implementación puede reintentar fn completa ante un conflicto de serialización.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Repos) error) error
}

// CreditCache cupo de fiado cacheado; se invalida tras cada commit que lo modifica.
type CreditCache interface {
	Invalidate(ctx context.Context, customerID string) error
}

type noopCache struct{}

func (noopCache) Invalidate(context.Context, string) error { return nil }

// Config parámetros del motor de ventas.
type Config struct {
	PaymentTolerance decimal.Decimal // residuo máximo absorbido al cuadrar pagos
	DefaultTermDays  int             // plazo del fiado cuando la venta no trae fecha de vencimiento
	WarehouseID      string          // bodega por defecto
}

// DefaultConfig tolerancia de un centavo y 30 días de plazo.
func DefaultConfig() Config {
	return Config{PaymentTolerance: money.MinorUnit, DefaultTermDays: 30}
}
