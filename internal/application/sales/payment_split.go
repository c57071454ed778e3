package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// PaymentInput pago solicitado para la venta.
type PaymentInput struct {
	Method         entity.PaymentMethod
	Amount         decimal.Decimal
	ReceivedAmount *decimal.Decimal // solo CASH
	Reference      string
}

// PaymentSplit pagos cuadrados contra el total: PaidAmount + CreditAmount = total exacto.
type PaymentSplit struct {
	Payments     []entity.SalePayment
	PaidAmount   decimal.Decimal // pagos distintos de CREDIT
	CreditAmount decimal.Decimal
	ChangeAmount decimal.Decimal
	Residual     decimal.Decimal // diferencia absorbida (0 si cuadró exacto)
	AbsorbedBy   int             // índice del pago que absorbió el residuo, -1 si ninguno
}

// SplitPayments cuadra los pagos con el total. Un residuo de hasta tolerance se absorbe en el
// último pago CREDIT o, si no hay, en el último CASH; un residuo mayor o sin pago que lo absorba
// es domain.ErrPaymentMismatch. En efectivo Change = Received - Amount y Received < Amount es
// domain.ErrInsufficientCash.
func SplitPayments(total decimal.Decimal, in []PaymentInput, tolerance decimal.Decimal) (PaymentSplit, error) {
	split := PaymentSplit{
		PaidAmount:   decimal.Zero,
		CreditAmount: decimal.Zero,
		ChangeAmount: decimal.Zero,
		Residual:     decimal.Zero,
		AbsorbedBy:   -1,
	}
	amounts := make([]decimal.Decimal, len(in))
	sum := decimal.Zero
	lastCredit, lastCash := -1, -1
	for i, p := range in {
		if !p.Method.Valid() {
			return split, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, p.Method)
		}
		if !p.Amount.IsPositive() || !p.Amount.Equal(money.Round(p.Amount)) {
			return split, fmt.Errorf("%w: pago %d por %s", domain.ErrInvalidAmount, i+1, p.Amount)
		}
		if p.ReceivedAmount != nil && p.Method != entity.PaymentCash {
			return split, fmt.Errorf("%w: valor recibido solo aplica a efectivo (pago %d)", domain.ErrInvalidAmount, i+1)
		}
		switch p.Method {
		case entity.PaymentCredit:
			lastCredit = i
		case entity.PaymentCash:
			lastCash = i
		}
		amounts[i] = p.Amount
		sum = sum.Add(p.Amount)
	}

	total = money.Round(total)
	residual := total.Sub(sum)
	if residual.Abs().GreaterThan(tolerance) {
		return split, &domain.PaymentError{Total: total, Paid: sum, Residual: residual, Err: domain.ErrPaymentMismatch}
	}
	if !residual.IsZero() {
		target := lastCredit
		if target < 0 {
			target = lastCash
		}
		if target < 0 || !amounts[target].Add(residual).IsPositive() {
			return split, &domain.PaymentError{Total: total, Paid: sum, Residual: residual, Err: domain.ErrPaymentMismatch}
		}
		amounts[target] = amounts[target].Add(residual)
		split.Residual = residual
		split.AbsorbedBy = target
	}

	split.Payments = make([]entity.SalePayment, len(in))
	for i, p := range in {
		sp := entity.SalePayment{Method: p.Method, Amount: amounts[i], Reference: p.Reference}
		if p.Method == entity.PaymentCash {
			received := amounts[i]
			if p.ReceivedAmount != nil {
				received = *p.ReceivedAmount
			}
			if received.LessThan(amounts[i]) {
				return split, fmt.Errorf("%w: recibido %s, a pagar %s",
					domain.ErrInsufficientCash, received.StringFixed(2), amounts[i].StringFixed(2))
			}
			change := received.Sub(amounts[i])
			sp.ReceivedAmount = &received
			sp.ChangeGiven = &change
			split.ChangeAmount = split.ChangeAmount.Add(change)
		}
		if p.Method == entity.PaymentCredit {
			split.CreditAmount = split.CreditAmount.Add(amounts[i])
		} else {
			split.PaidAmount = split.PaidAmount.Add(amounts[i])
		}
		split.Payments[i] = sp
	}

	if !split.PaidAmount.Add(split.CreditAmount).Equal(total) {
		return split, &domain.PaymentError{Total: total, Paid: split.PaidAmount.Add(split.CreditAmount), Residual: residual, Err: domain.ErrPaymentMismatch}
	}
	return split, nil
}
