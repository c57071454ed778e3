package dto

import "github.com/shopspring/decimal"

// RecordPaymentRequest abono de un cliente a su deuda de fiado. CREDIT no es un medio de abono.
type RecordPaymentRequest struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,oneof=CASH CARD NEQUI DAVIPLATA BANK_TRANSFER OTHER"`
	Notes      string          `json:"notes,omitempty" validate:"max=500"`
	UserID     string          `json:"-"`
}

// CreateCustomerRequest alta de cliente con su cupo de fiado.
type CreateCustomerRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	TaxID         string          `json:"tax_id,omitempty" validate:"max=20"`
	Email         string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string          `json:"phone,omitempty" validate:"max=30"`
	CreditEnabled bool            `json:"credit_enabled"`
	CreditLimit   decimal.Decimal `json:"credit_limit" validate:"gte=0"`
}

// UpdateCreditRequest cambia habilitación y cupo de un cliente.
type UpdateCreditRequest struct {
	CreditEnabled *bool            `json:"credit_enabled,omitempty"`
	CreditLimit   *decimal.Decimal `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
}
