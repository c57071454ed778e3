package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer representa un cliente. El cupo usado se calcula desde sus ventas a fiado abiertas.
type Customer struct {
	ID            string
	Name          string
	TaxID         string // NIT o Cédula (Colombia)
	Email         string
	Phone         string
	CreditEnabled bool
	CreditLimit   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreditSummary cupo de crédito derivado: CreditAvailable = CreditLimit - CreditUsed.
type CreditSummary struct {
	CustomerID      string
	CreditEnabled   bool
	CreditLimit     decimal.Decimal
	CreditUsed      decimal.Decimal
	CreditAvailable decimal.Decimal
	OverdueAmount   decimal.Decimal
	OpenSales       int
	ComputedAt      time.Time
}

// NewCreditSummary recalcula el cupo a partir de las cuentas abiertas del cliente.
func NewCreditSummary(c *Customer, credits []CreditSale, now time.Time) CreditSummary {
	used := decimal.Zero
	overdue := decimal.Zero
	open := 0
	for _, cs := range credits {
		if !cs.IsOpen() {
			continue
		}
		open++
		used = used.Add(cs.RemainingBalance)
		if cs.EffectiveStatus(now) == CreditOverdue {
			overdue = overdue.Add(cs.RemainingBalance)
		}
	}
	return CreditSummary{
		CustomerID:      c.ID,
		CreditEnabled:   c.CreditEnabled,
		CreditLimit:     c.CreditLimit,
		CreditUsed:      used,
		CreditAvailable: c.CreditLimit.Sub(used),
		OverdueAmount:   overdue,
		OpenSales:       open,
		ComputedAt:      now,
	}
}
