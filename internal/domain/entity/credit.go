package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus estado de una venta a fiado.
type CreditStatus string

const (
	CreditPending   CreditStatus = "PENDING"
	CreditPaid      CreditStatus = "PAID"
	CreditOverdue   CreditStatus = "OVERDUE"   // derivado del vencimiento; no es fuente de verdad
	CreditCancelled CreditStatus = "CANCELLED" // la venta origen fue anulada
)

// CreditSale cuenta por cobrar generada por la porción fiada de una venta.
// RemainingBalance = TotalAmount - PaidAmount y nunca es negativo.
type CreditSale struct {
	ID               string
	SaleID           string
	CustomerID       string
	TotalAmount      decimal.Decimal
	PaidAmount       decimal.Decimal
	RemainingBalance decimal.Decimal
	Status           CreditStatus
	SaleDate         time.Time
	DueDate          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOpen indica si la cuenta aún suma a la deuda del cliente.
func (c CreditSale) IsOpen() bool {
	return c.Status == CreditPending || c.Status == CreditOverdue
}

// EffectiveStatus estado considerando el vencimiento a la fecha dada.
func (c CreditSale) EffectiveStatus(now time.Time) CreditStatus {
	if c.Status == CreditPending && c.DueDate != nil && now.After(*c.DueDate) && c.RemainingBalance.IsPositive() {
		return CreditOverdue
	}
	return c.Status
}

// Settle calcula el patch que resulta de abonar amount (amount <= RemainingBalance).
func (c CreditSale) Settle(amount decimal.Decimal, now time.Time) CreditSalePatch {
	paid := c.PaidAmount.Add(amount)
	remaining := c.TotalAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	patch := CreditSalePatch{PaidAmount: &paid, RemainingBalance: &remaining, UpdatedAt: now}
	if remaining.IsZero() {
		st := CreditPaid
		patch.Status = &st
	}
	return patch
}

// CreditSalePatch campos a modificar de una CreditSale.
type CreditSalePatch struct {
	PaidAmount       *decimal.Decimal
	RemainingBalance *decimal.Decimal
	Status           *CreditStatus
	UpdatedAt        time.Time
}

// Apply devuelve una copia con los cambios aplicados.
func (p CreditSalePatch) Apply(c CreditSale) CreditSale {
	if p.PaidAmount != nil {
		c.PaidAmount = *p.PaidAmount
	}
	if p.RemainingBalance != nil {
		c.RemainingBalance = *p.RemainingBalance
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	c.UpdatedAt = p.UpdatedAt
	return c
}

// CreditPayment abono aplicado a una CreditSale (append-only).
type CreditPayment struct {
	ID           string
	CreditSaleID string
	CustomerID   string
	Amount       decimal.Decimal
	Method       PaymentMethod
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
}
