package credit

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// refreshTimeout tope del cálculo compartido, que no hereda la cancelación de quien lo inició.
const refreshTimeout = 10 * time.Second

// SummaryUseCase cupo de fiado del cliente: creditUsed se recalcula desde las cuentas abiertas;
// la cache es solo una proyección y se invalida en cada escritura de CreditSale/CreditPayment.
type SummaryUseCase struct {
	customers repository.CustomerRepository
	credits   repository.CreditSaleRepository
	cache     SummaryCache
	clock     domain.Clock
	log       *logger.Logger
	group     singleflight.Group
}

// NewSummaryUseCase construye el caso de uso con repositorios fuera de transacción.
func NewSummaryUseCase(customers repository.CustomerRepository, credits repository.CreditSaleRepository, cache SummaryCache, clock domain.Clock, log *logger.Logger) *SummaryUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryUseCase{customers: customers, credits: credits, cache: cache, clock: clock, log: log.Component("credit")}
}

// GetCustomerCreditSummary devuelve {creditLimit, creditUsed, creditAvailable}. Un fallo de la cache
// no es fatal: se recalcula. Las consultas concurrentes del mismo cliente comparten un solo cálculo.
func (uc *SummaryUseCase) GetCustomerCreditSummary(ctx context.Context, customerID string) (entity.CreditSummary, error) {
	if cached, ok, err := uc.cache.Get(ctx, customerID); err != nil {
		uc.log.Warn().Err(err).Str("customer_id", customerID).Msg("cache de cupo no disponible")
	} else if ok {
		return *cached, nil
	}

	// El cálculo es compartido: si quien lo inició se cancela, los demás siguen esperando su resultado
	ch := uc.group.DoChan(customerID, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return uc.Refresh(shared, customerID)
	})
	select {
	case <-ctx.Done():
		return entity.CreditSummary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entity.CreditSummary{}, res.Err
		}
		return res.Val.(entity.CreditSummary), nil
	}
}

// Refresh recalcula el cupo desde la fuente de verdad y lo guarda en la cache. La generación se
// lee antes que las cuentas: si un abono invalida mientras tanto, el cupo calculado no se guarda.
func (uc *SummaryUseCase) Refresh(ctx context.Context, customerID string) (entity.CreditSummary, error) {
	gen, genErr := uc.cache.Generation(ctx, customerID)
	if genErr != nil {
		uc.log.Warn().Err(genErr).Str("customer_id", customerID).Msg("cache de cupo no disponible")
	}
	customer, err := uc.customers.GetByID(ctx, customerID)
	if err != nil {
		return entity.CreditSummary{}, err
	}
	if customer == nil {
		return entity.CreditSummary{}, domain.ErrCustomerNotFound
	}
	credits, err := uc.credits.ListByCustomer(ctx, customerID)
	if err != nil {
		return entity.CreditSummary{}, err
	}
	list := make([]entity.CreditSale, len(credits))
	for i, c := range credits {
		list[i] = *c
	}
	summary := entity.NewCreditSummary(customer, list, uc.clock.Now())
	if genErr != nil {
		return summary, nil
	}
	stored, err := uc.cache.Set(ctx, summary, gen)
	switch {
	case err != nil:
		uc.log.Warn().Err(err).Str("customer_id", customerID).Msg("no se pudo guardar el cupo en cache")
	case !stored:
		uc.log.Debug().Str("customer_id", customerID).Int64("generation", gen).Msg("cupo invalidado durante el cálculo; no se guarda")
	}
	return summary, nil
}
