package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea del carrito. UnitPrice vacío = precio de lista (o precio por gramo).
type SaleItemRequest struct {
	ProductID       string           `json:"product_id" validate:"required"`
	VariantID       string           `json:"variant_id,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
}

// SalePaymentRequest pago de la venta. ReceivedAmount solo para CASH.
type SalePaymentRequest struct {
	Method         string           `json:"method" validate:"required,oneof=CASH CARD NEQUI DAVIPLATA BANK_TRANSFER CREDIT OTHER"`
	Amount         decimal.Decimal  `json:"amount"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty"`
	Reference      string           `json:"reference,omitempty" validate:"max=100"`
}

// SaleDiscountRequest descuento global: porcentaje o valor fijo (el valor gana).
type SaleDiscountRequest struct {
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

// CreateSaleRequest entrada de createSale. La venta es CREDIT si algún pago usa CREDIT.
type CreateSaleRequest struct {
	CustomerID    string               `json:"customer_id,omitempty"`
	WarehouseID   string               `json:"warehouse_id,omitempty"`
	Items         []SaleItemRequest    `json:"items" validate:"dive"`
	Payments      []SalePaymentRequest `json:"payments" validate:"dive"`
	Discount      *SaleDiscountRequest `json:"discount,omitempty"`
	CreditDueDate *time.Time           `json:"credit_due_date,omitempty"`
	Notes         string               `json:"notes,omitempty" validate:"max=500"`
	UserID        string               `json:"-"`
}

// CancelSaleRequest entrada de cancelSale.
type CancelSaleRequest struct {
	SaleID string `json:"sale_id" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
	UserID string `json:"-"`
}
