package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyScale decimales con los que se persiste y muestra la moneda.
const CurrencyScale int32 = 2

// MinorUnit es la unidad mínima de la moneda (0.01) y la base de todas las tolerancias.
var MinorUnit = decimal.New(1, -CurrencyScale)

var hundred = decimal.NewFromInt(100)

// ErrInvalidNumber valor que no puede interpretarse como número finito.
var ErrInvalidNumber = errors.New("money: valor numérico inválido")

// Parse convierte estrictamente un valor débilmente tipado (string, json.Number, float, int, decimal)
// a decimal. nil, cadenas vacías, NaN e infinitos son inválidos. Usar en rutas de escritura.
func Parse(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, ErrInvalidNumber
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, ErrInvalidNumber
		}
		return *t, nil
	case decimal.NullDecimal:
		if !t.Valid {
			return decimal.Zero, ErrInvalidNumber
		}
		return t.Decimal, nil
	case string:
		return parseString(t)
	case []byte:
		return parseString(string(t))
	case json.Number:
		return parseString(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, ErrInvalidNumber
		}
		return decimal.NewFromFloat(t), nil
	case float32:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, ErrInvalidNumber
		}
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case uint32:
		return decimal.NewFromInt(int64(t)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: tipo %T", ErrInvalidNumber, v)
	}
}

func parseString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}

// Coerce es la variante de lectura de Parse: nunca falla y devuelve cero ante entradas inválidas.
func Coerce(v any) decimal.Decimal {
	d, err := Parse(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round redondea a la escala de moneda (mitad hacia arriba, lejos de cero).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyScale)
}

// Percent devuelve base * pct / 100 sin redondear.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Sum suma los valores sin redondear.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// WithinTolerance indica si |a - b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// Min devuelve el menor de dos valores.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

var displayTag = language.MustParse("es-CO")

// Format representa el valor como moneda para pantalla (es-CO).
func Format(d decimal.Decimal) string {
	return FormatWith(displayTag, d)
}

// FormatWith representa el valor como moneda usando las convenciones del idioma indicado.
// Solo para presentación: el valor ya redondeado se convierte a float únicamente aquí.
func FormatWith(tag language.Tag, d decimal.Decimal) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("$ %v", number.Decimal(Round(d).InexactFloat64(), number.Scale(int(CurrencyScale))))
}
