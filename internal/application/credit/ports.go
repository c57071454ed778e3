package credit

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// TxRunner ejecuta fn dentro de una transacción con los repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Repos) error) error
}

// SummaryCache proyección cacheada del cupo; descartable, nunca fuente de verdad.
// Invalidate sube la generación del cliente; Set con una generación vieja no escribe.
type SummaryCache interface {
	Get(ctx context.Context, customerID string) (*entity.CreditSummary, bool, error)
	Generation(ctx context.Context, customerID string) (int64, error)
	Set(ctx context.Context, summary entity.CreditSummary, gen int64) (bool, error)
	Invalidate(ctx context.Context, customerID string) error
}

// EventPublisher encola trabajo posterior a un abono (ej. refrescar el cupo cacheado).
type EventPublisher interface {
	PublishSummaryRefresh(ctx context.Context, customerID string) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*entity.CreditSummary, bool, error) {
	return nil, false, nil
}
func (noopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (noopCache) Set(context.Context, entity.CreditSummary, int64) (bool, error) {
	return false, nil
}
func (noopCache) Invalidate(context.Context, string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishSummaryRefresh(context.Context, string) error { return nil }

// Config parámetros del fiado.
type Config struct {
	// OverpaymentTolerance exceso sobre la deuda que se recorta en lugar de rechazar el abono.
	OverpaymentTolerance decimal.Decimal
}

// DefaultConfig tolerancia de un centavo.
func DefaultConfig() Config {
	return Config{OverpaymentTolerance: money.MinorUnit}
}
