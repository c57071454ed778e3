package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// OverdueMarker barrido de vencimientos (credit.SettlementUseCase).
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int, error)
}

// SummaryRefresher recálculo del cupo (credit.SummaryUseCase).
type SummaryRefresher interface {
	Refresh(ctx context.Context, customerID string) (entity.CreditSummary, error)
}

// CreditHandlers procesa las tareas del fiado.
type CreditHandlers struct {
	overdue OverdueMarker
	summary SummaryRefresher
	log     *logger.Logger
}

// NewCreditHandlers construye los handlers. log puede ser nil.
func NewCreditHandlers(overdue OverdueMarker, summary SummaryRefresher, log *logger.Logger) *CreditHandlers {
	if log == nil {
		log = logger.Nop()
	}
	return &CreditHandlers{overdue: overdue, summary: summary, log: log.Component("jobs")}
}

// HandleOverdueSweep procesa TaskOverdueSweep.
func (h *CreditHandlers) HandleOverdueSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := h.overdue.MarkOverdue(ctx)
	if err != nil {
		h.log.Error().Err(err).Str("task", TaskOverdueSweep).Msg("barrido de vencimientos falló")
		return err
	}
	h.log.Info().Str("task", TaskOverdueSweep).Int("marked", n).Msg("barrido de vencimientos completado")
	return nil
}

// HandleSummaryRefresh procesa TaskSummaryRefresh. Un payload inválido o un cliente
// inexistente no se reintentan.
func (h *CreditHandlers) HandleSummaryRefresh(ctx context.Context, t *asynq.Task) error {
	p, err := decodeSummaryRefresh(t)
	if err != nil {
		h.log.Warn().Err(err).Str("task", TaskSummaryRefresh).Msg("payload inválido")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if _, err := h.summary.Refresh(ctx, p.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.log.Warn().Str("customer_id", p.CustomerID).Msg("cliente no encontrado, se descarta el refresco")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
