package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleType tipo de venta.
type SaleType string

const (
	SaleTypeRegular SaleType = "REGULAR"
	SaleTypeCredit  SaleType = "CREDIT" // tiene saldo a fiado (CreditAmount > 0)
)

// SaleStatus estado de la venta. Una venta COMPLETED solo puede pasar a CANCELLED.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// PaymentMethod medio de pago.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentNequi        PaymentMethod = "NEQUI"
	PaymentDaviplata    PaymentMethod = "DAVIPLATA"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCredit       PaymentMethod = "CREDIT"
	PaymentOther        PaymentMethod = "OTHER"
)

// Valid indica si el medio de pago es conocido.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentNequi, PaymentDaviplata, PaymentBankTransfer, PaymentCredit, PaymentOther:
		return true
	}
	return false
}

// Sale cabecera de una venta. Inmutable una vez confirmada salvo la anulación.
// Total = Subtotal - DiscountAmount + TaxAmount; PaidAmount + CreditAmount = Total.
type Sale struct {
	ID             string
	Type           SaleType
	Status         SaleStatus
	CustomerID     string // vacío para consumidor final
	WarehouseID    string // bodega de la que se descontó el stock
	Items          []SaleItem
	Payments       []SalePayment
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	PaidAmount     decimal.Decimal // suma de pagos distintos de CREDIT
	ChangeAmount   decimal.Decimal
	CreditAmount   decimal.Decimal
	CreditDueDate  *time.Time
	Notes          string
	CancelReason   string
	CancelledAt    *time.Time
	CancelledBy    string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem línea de la venta con sus valores derivados ya redondeados a moneda.
type SaleItem struct {
	ID              string
	SaleID          string
	ProductID       string
	VariantID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal // antes de IVA y descuento
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         decimal.Decimal // porcentaje
	Subtotal        decimal.Decimal // UnitPrice * Quantity
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal // Subtotal - DiscountAmount + TaxAmount
}

// SalePayment pago aplicado a la venta. ReceivedAmount y ChangeGiven solo para efectivo.
type SalePayment struct {
	ID             string
	SaleID         string
	Method         PaymentMethod
	Amount         decimal.Decimal
	ReceivedAmount *decimal.Decimal
	ChangeGiven    *decimal.Decimal
	Reference      string // voucher, número de transacción Nequi/Daviplata, etc.
	CreatedAt      time.Time
}

// SaleCancellation patch de anulación: único cambio permitido sobre una venta confirmada.
type SaleCancellation struct {
	Reason      string
	CancelledBy string
	CancelledAt time.Time
}

// Apply devuelve una copia de la venta anulada.
func (c SaleCancellation) Apply(s Sale) Sale {
	at := c.CancelledAt
	s.Status = SaleStatusCancelled
	s.CancelReason = c.Reason
	s.CancelledBy = c.CancelledBy
	s.CancelledAt = &at
	s.UpdatedAt = at
	return s
}
