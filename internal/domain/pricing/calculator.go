package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// LineInput datos de una línea a liquidar. DiscountAmount explícito gana sobre DiscountPercent.
type LineInput struct {
	Quantity        decimal.Decimal // > 0; fraccionaria para productos por peso
	UnitPrice       decimal.Decimal // >= 0, antes de IVA y descuento
	DiscountPercent decimal.Decimal // 0..100
	DiscountAmount  *decimal.Decimal
	TaxRate         decimal.Decimal // porcentaje >= 0
}

// SaleDiscount descuento global: porcentaje sobre el subtotal o valor fijo (el valor gana).
type SaleDiscount struct {
	Percent *decimal.Decimal
	Amount  *decimal.Decimal
}

// PricedLine valores de la línea redondeados a moneda. Total = Subtotal - Discount + Tax.
type PricedLine struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PricedSale liquidación de la venta. Total = Subtotal - DiscountAmount + TaxAmount.
// La suma de las líneas coincide exactamente con Subtotal, LineDiscount y TaxAmount.
type PricedSale struct {
	Lines          []PricedLine
	Subtotal       decimal.Decimal
	LineDiscount   decimal.Decimal
	SaleDiscount   decimal.Decimal
	DiscountAmount decimal.Decimal // LineDiscount + SaleDiscount
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

type rawLine struct {
	subtotal decimal.Decimal
	discount decimal.Decimal
	tax      decimal.Decimal
}

// PriceItems liquida las líneas y la venta (función pura). Los cálculos intermedios se hacen
// sin redondeo; se redondea una sola vez a nivel de venta y los centavos se reparten entre
// las líneas por mayor residuo para que las líneas sumen exactamente la venta.
// Cualquier línea inválida rechaza la liquidación completa con domain.ErrInvalidLineItem.
func PriceItems(items []LineInput, discount *SaleDiscount) (PricedSale, error) {
	if len(items) == 0 {
		return PricedSale{}, domain.NewLineError(-1, "la venta no tiene líneas")
	}

	raws := make([]rawLine, len(items))
	var sumSub, sumDisc, sumTax decimal.Decimal
	for i, it := range items {
		raw, err := priceLine(i, it)
		if err != nil {
			return PricedSale{}, err
		}
		raws[i] = raw
		sumSub = sumSub.Add(raw.subtotal)
		sumDisc = sumDisc.Add(raw.discount)
		sumTax = sumTax.Add(raw.tax)
	}

	saleDisc, err := saleDiscount(discount, sumSub, sumDisc)
	if err != nil {
		return PricedSale{}, err
	}

	subtotal := money.Round(sumSub)
	lineDiscount := money.Round(sumDisc)
	tax := money.Round(sumTax)
	saleDiscRounded := money.Round(saleDisc)

	subs := allocate(rawColumn(raws, func(r rawLine) decimal.Decimal { return r.subtotal }), subtotal)
	discs := allocate(rawColumn(raws, func(r rawLine) decimal.Decimal { return r.discount }), lineDiscount)
	taxes := allocate(rawColumn(raws, func(r rawLine) decimal.Decimal { return r.tax }), tax)

	lines := make([]PricedLine, len(items))
	for i := range items {
		lines[i] = PricedLine{
			Subtotal: subs[i],
			Discount: discs[i],
			Tax:      taxes[i],
			Total:    subs[i].Sub(discs[i]).Add(taxes[i]),
		}
	}

	discountAmount := lineDiscount.Add(saleDiscRounded)
	return PricedSale{
		Lines:          lines,
		Subtotal:       subtotal,
		LineDiscount:   lineDiscount,
		SaleDiscount:   saleDiscRounded,
		DiscountAmount: discountAmount,
		TaxAmount:      tax,
		Total:          subtotal.Sub(discountAmount).Add(tax),
	}, nil
}

func priceLine(i int, it LineInput) (rawLine, error) {
	if !it.Quantity.IsPositive() {
		return rawLine{}, domain.NewLineError(i, "la cantidad debe ser mayor que cero")
	}
	if it.UnitPrice.IsNegative() {
		return rawLine{}, domain.NewLineError(i, "el precio unitario no puede ser negativo")
	}
	if it.TaxRate.IsNegative() {
		return rawLine{}, domain.NewLineError(i, "la tarifa de IVA no puede ser negativa")
	}
	sub := it.UnitPrice.Mul(it.Quantity)

	var disc decimal.Decimal
	switch {
	case it.DiscountAmount != nil:
		if it.DiscountAmount.IsNegative() {
			return rawLine{}, domain.NewLineError(i, "el descuento no puede ser negativo")
		}
		disc = *it.DiscountAmount
	default:
		if it.DiscountPercent.IsNegative() || it.DiscountPercent.GreaterThan(hundred) {
			return rawLine{}, domain.NewLineError(i, "el porcentaje de descuento debe estar entre 0 y 100")
		}
		disc = money.Percent(sub, it.DiscountPercent)
	}
	if disc.GreaterThan(sub) {
		return rawLine{}, domain.NewLineError(i, "el descuento supera el subtotal de la línea")
	}

	discounted := sub.Sub(disc)
	return rawLine{
		subtotal: sub,
		discount: disc,
		tax:      money.Percent(discounted, it.TaxRate),
	}, nil
}

func saleDiscount(d *SaleDiscount, sumSub, sumLineDisc decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, nil
	}
	var disc decimal.Decimal
	switch {
	case d.Amount != nil:
		if d.Amount.IsNegative() {
			return decimal.Zero, domain.NewLineError(-1, "el descuento global no puede ser negativo")
		}
		disc = *d.Amount
	case d.Percent != nil:
		if d.Percent.IsNegative() || d.Percent.GreaterThan(hundred) {
			return decimal.Zero, domain.NewLineError(-1, "el porcentaje de descuento global debe estar entre 0 y 100")
		}
		disc = money.Percent(sumSub, *d.Percent)
	}
	if disc.GreaterThan(sumSub.Sub(sumLineDisc)) {
		return decimal.Zero, domain.NewLineError(-1, "el descuento global supera el subtotal")
	}
	return disc, nil
}

func rawColumn(raws []rawLine, pick func(rawLine) decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(raws))
	for i, r := range raws {
		out[i] = pick(r)
	}
	return out
}

// allocate reparte target (ya redondeado) entre valores no negativos por mayor residuo:
// cada valor queda en su piso a centavos y los centavos restantes van a los mayores residuos.
func allocate(raws []decimal.Decimal, target decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(raws))
	floorSum := decimal.Zero
	for i, r := range raws {
		out[i] = r.Truncate(money.CurrencyScale)
		floorSum = floorSum.Add(out[i])
	}
	cents := target.Sub(floorSum).Div(money.MinorUnit).IntPart()
	if cents <= 0 {
		return out
	}
	order := make([]int, len(raws))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra := raws[order[a]].Sub(out[order[a]])
		rb := raws[order[b]].Sub(out[order[b]])
		return ra.GreaterThan(rb)
	})
	for k := int64(0); k < cents; k++ {
		i := order[int(k)%len(order)]
		out[i] = out[i].Add(money.MinorUnit)
	}
	return out
}
