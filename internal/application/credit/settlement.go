package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// SettlementUseCase abonos al fiado con asignación FIFO (la deuda más antigua primero).
type SettlementUseCase struct {
	txRunner  TxRunner
	cache     SummaryCache
	publisher EventPublisher
	clock     domain.Clock
	cfg       Config
	log       *logger.Logger
}

// NewSettlementUseCase construye el caso de uso. cache, publisher, clock y log pueden ser nil.
func NewSettlementUseCase(txRunner TxRunner, cache SummaryCache, publisher EventPublisher, clock domain.Clock, cfg Config, log *logger.Logger) *SettlementUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.OverpaymentTolerance.IsNegative() {
		cfg.OverpaymentTolerance = decimal.Zero
	}
	return &SettlementUseCase{
		txRunner:  txRunner,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		log:       log.Component("credit"),
	}
}

// RecordPayment aplica un abono a las cuentas abiertas del cliente en orden FIFO
// (SaleDate, luego creación, luego ID). Un exceso mayor a la tolerancia se rechaza con
// *domain.OverpaymentError; uno dentro de la tolerancia se recorta al total pendiente.
// Se crea un CreditPayment por cada cuenta tocada y se devuelven en orden de aplicación.
func (uc *SettlementUseCase) RecordPayment(ctx context.Context, req dto.RecordPaymentRequest) ([]*entity.CreditPayment, error) {
	if !req.Amount.IsPositive() || !req.Amount.Equal(money.Round(req.Amount)) {
		return nil, fmt.Errorf("%w: abono de %s", domain.ErrInvalidAmount, req.Amount)
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	method := entity.PaymentMethod(req.Method)

	var created []*entity.CreditPayment
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		created = nil
		now := uc.clock.Now()

		// El bloqueo del cliente serializa los abonos: dos corridas FIFO no se intercalan
		customer, err := tx.Customers.GetForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}
		open, err := tx.Credits.ListOpenForUpdate(ctx, customer.ID)
		if err != nil {
			return err
		}
		outstanding := decimal.Zero
		for _, c := range open {
			outstanding = outstanding.Add(c.RemainingBalance)
		}
		if !outstanding.IsPositive() {
			return domain.ErrNoOutstandingDebt
		}

		toApply := req.Amount
		if excess := toApply.Sub(outstanding); excess.IsPositive() {
			if excess.GreaterThan(uc.cfg.OverpaymentTolerance) {
				return &domain.OverpaymentError{CustomerID: customer.ID, Amount: req.Amount, Outstanding: outstanding}
			}
			uc.log.Warn().
				Str("customer_id", customer.ID).
				Str("amount", req.Amount.StringFixed(2)).
				Str("outstanding", outstanding.StringFixed(2)).
				Str("excess", excess.String()).
				Msg("abono recortado al total pendiente")
			toApply = outstanding
		}

		for _, c := range open {
			if !toApply.IsPositive() {
				break
			}
			if !c.RemainingBalance.IsPositive() {
				continue
			}
			applied := money.Min(toApply, c.RemainingBalance)
			if err := tx.Credits.Update(ctx, c.ID, c.Settle(applied, now)); err != nil {
				return err
			}
			paymentID, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p := &entity.CreditPayment{
				ID:           paymentID.String(),
				CreditSaleID: c.ID,
				CustomerID:   customer.ID,
				Amount:       applied,
				Method:       method,
				Notes:        req.Notes,
				CreatedBy:    req.UserID,
				CreatedAt:    now,
			}
			if err := tx.CreditPayments.Create(ctx, p); err != nil {
				return err
			}
			created = append(created, p)
			toApply = toApply.Sub(applied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx, req.CustomerID); err != nil {
		uc.log.Warn().Err(err).Str("customer_id", req.CustomerID).Msg("no se pudo invalidar el cupo cacheado")
	}
	if err := uc.publisher.PublishSummaryRefresh(ctx, req.CustomerID); err != nil {
		uc.log.Warn().Err(err).Str("customer_id", req.CustomerID).Msg("no se pudo encolar el refresco del cupo")
	}
	uc.log.Info().
		Str("customer_id", req.CustomerID).
		Str("amount", req.Amount.StringFixed(2)).
		Int("credit_sales", len(created)).
		Msg("abono registrado")
	return created, nil
}

// CreditStatementLine cuenta del cliente con su estado efectivo y sus abonos.
type CreditStatementLine struct {
	Credit          entity.CreditSale
	EffectiveStatus entity.CreditStatus
	Payments        []*entity.CreditPayment
}

// ListCreditSales estado de cuenta del cliente en orden FIFO. OVERDUE se deriva del reloj.
func (uc *SettlementUseCase) ListCreditSales(ctx context.Context, customerID string) ([]CreditStatementLine, error) {
	var lines []CreditStatementLine
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		lines = nil
		customer, err := tx.Customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}
		credits, err := tx.Credits.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		now := uc.clock.Now()
		for _, c := range credits {
			payments, err := tx.CreditPayments.ListByCreditSale(ctx, c.ID)
			if err != nil {
				return err
			}
			lines = append(lines, CreditStatementLine{Credit: *c, EffectiveStatus: c.EffectiveStatus(now), Payments: payments})
		}
		return nil
	})
	return lines, err
}

// MarkOverdue persiste PENDING → OVERDUE en las cuentas vencidas con saldo. Devuelve cuántas cambió.
// El estado es informativo: el cobro FIFO trata PENDING y OVERDUE igual.
func (uc *SettlementUseCase) MarkOverdue(ctx context.Context) (int, error) {
	touched := map[string]bool{}
	count := 0
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		touched = map[string]bool{}
		count = 0
		now := uc.clock.Now()
		candidates, err := tx.Credits.ListOverdueCandidates(ctx, now)
		if err != nil {
			return err
		}
		st := entity.CreditOverdue
		for _, c := range candidates {
			if c.EffectiveStatus(now) != entity.CreditOverdue {
				continue
			}
			if err := tx.Credits.Update(ctx, c.ID, entity.CreditSalePatch{Status: &st, UpdatedAt: now}); err != nil {
				return err
			}
			touched[c.CustomerID] = true
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for customerID := range touched {
		if err := uc.cache.Invalidate(ctx, customerID); err != nil {
			uc.log.Warn().Err(err).Str("customer_id", customerID).Msg("no se pudo invalidar el cupo cacheado")
		}
	}
	if count > 0 {
		uc.log.Info().Int("credit_sales", count).Msg("fiados marcados como vencidos")
	}
	return count, nil
}
