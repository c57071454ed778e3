package sales

import (
	"errors"
	"fmt"

	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// SaleState fase del registro de una venta.
type SaleState string

const (
	StateValidating   SaleState = "VALIDATING"
	StatePriced       SaleState = "PRICED"
	StateStockChecked SaleState = "STOCK_CHECKED"
	StatePaymentSplit SaleState = "PAYMENT_SPLIT"
	StateCommitted    SaleState = "COMMITTED"
	StateAborted      SaleState = "ABORTED"
)

var nextState = map[SaleState]SaleState{
	StateValidating:   StatePriced,
	StatePriced:       StateStockChecked,
	StateStockChecked: StatePaymentSplit,
	StatePaymentSplit: StateCommitted,
}

// AbortedError venta rechazada; State es la última fase alcanzada antes del fallo.
// Nada de lo hecho en la transacción sobrevive.
type AbortedError struct {
	State SaleState
	Err   error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("venta abortada en %s: %v", e.State, e.Err)
}

func (e *AbortedError) Unwrap() error { return e.Err }

// saleRun recorre VALIDATING → PRICED → STOCK_CHECKED → PAYMENT_SPLIT → COMMITTED.
type saleRun struct {
	state SaleState
	log   *logger.Logger
}

func newSaleRun(log *logger.Logger) *saleRun {
	return &saleRun{state: StateValidating, log: log}
}

// step ejecuta fn y avanza a la siguiente fase; cualquier error aborta la venta.
func (r *saleRun) step(fn func() error) error {
	next, ok := nextState[r.state]
	if !ok {
		return r.abort(fmt.Errorf("sin transición desde %s", r.state))
	}
	if err := fn(); err != nil {
		return r.abort(err)
	}
	r.state = next
	return nil
}

func (r *saleRun) abort(err error) error {
	var aborted *AbortedError
	if errors.As(err, &aborted) {
		return err
	}
	failedIn := r.state
	r.state = StateAborted
	r.log.Info().Str("state", string(failedIn)).Err(err).Msg("venta abortada")
	return &AbortedError{State: failedIn, Err: err}
}
