package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrInvalidState     = errors.New("operación no permitida en el estado actual")
	ErrSaleNotFound     = fmt.Errorf("venta: %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("cliente: %w", ErrNotFound)
	ErrCreditNotEnabled = errors.New("el cliente no tiene crédito habilitado")

	// Taxonomía del motor de ventas y fiado.
	ErrInvalidLineItem     = errors.New("línea de venta inválida")
	ErrProductNotFound     = fmt.Errorf("producto: %w", ErrNotFound)
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrPaymentMismatch     = errors.New("los pagos no cuadran con el total de la venta")
	ErrInsufficientCash    = errors.New("efectivo recibido insuficiente")
	ErrCreditLimitExceeded = errors.New("cupo de crédito excedido")
	ErrOverpaymentRejected = errors.New("el abono supera la deuda pendiente")
	ErrNoOutstandingDebt   = errors.New("el cliente no tiene deuda pendiente")
	ErrInvalidAmount       = errors.New("monto inválido")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente")
)

// LineError identifica la línea de la venta que provocó el rechazo.
type LineError struct {
	Index  int
	Reason string
	Err    error
}

func (e *LineError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%s (línea %d): %s", e.Err, e.Index+1, e.Reason)
}

func (e *LineError) Unwrap() error { return e.Err }

// NewLineError construye un LineError sobre ErrInvalidLineItem.
func NewLineError(index int, reason string) error {
	return &LineError{Index: index, Reason: reason, Err: ErrInvalidLineItem}
}

// StockError detalla una insuficiencia de stock (cantidad pedida vs disponible).
type StockError struct {
	LineIndex int // -1 si el movimiento no proviene de una venta
	ProductID string
	VariantID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	id := e.ProductID
	if e.VariantID != "" {
		id += "/" + e.VariantID
	}
	if e.LineIndex >= 0 {
		return fmt.Sprintf("%s (línea %d, producto %s): solicitado %s, disponible %s",
			ErrInsufficientStock, e.LineIndex+1, id, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s (producto %s): solicitado %s, disponible %s",
		ErrInsufficientStock, id, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// CreditLimitError detalla el cupo disponible frente al monto a crédito solicitado.
type CreditLimitError struct {
	CustomerID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("%s (cliente %s): solicitado %s, disponible %s",
		ErrCreditLimitExceeded, e.CustomerID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *CreditLimitError) Unwrap() error { return ErrCreditLimitExceeded }

// OverpaymentError informa el total pendiente cuando un abono lo excede.
type OverpaymentError struct {
	CustomerID  string
	Amount      decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s (cliente %s): abono %s, pendiente %s",
		ErrOverpaymentRejected, e.CustomerID, e.Amount.StringFixed(2), e.Outstanding.StringFixed(2))
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpaymentRejected }

// PaymentError detalla un descuadre entre pagos y total.
type PaymentError struct {
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Residual decimal.Decimal
	Err      error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: total %s, pagado %s, diferencia %s",
		e.Err, e.Total.StringFixed(2), e.Paid.StringFixed(2), e.Residual.StringFixed(2))
}

func (e *PaymentError) Unwrap() error { return e.Err }
