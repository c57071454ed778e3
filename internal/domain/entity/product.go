package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible. Si HasVariants es true el stock vendible vive
// en sus variantes y nunca en el propio producto.
// Cost es promedio ponderado calculado desde compras; el stock se maneja vía movimientos.
type Product struct {
	ID           string
	SKU          string
	Name         string
	Description  string
	Price        decimal.Decimal  // precio base de venta, antes de IVA y descuentos
	Cost         decimal.Decimal  // costo promedio ponderado (inicia en 0)
	TaxRate      decimal.Decimal  // IVA en porcentaje: 0, 5, 19
	PricePerGram *decimal.Decimal // solo productos vendidos por peso
	UnitMeasure  string
	HasVariants  bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Variant variante de un producto (talla, color, presentación).
type Variant struct {
	ID         string
	ProductID  string
	SKU        string
	Name       string
	PriceDelta decimal.Decimal // se suma al precio base del producto
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SoldByWeight indica si el producto se vende por gramos.
func (p *Product) SoldByWeight() bool {
	return p.PricePerGram != nil
}

// UnitPrice precio unitario de lista para el producto o la variante indicada (antes de IVA).
// Para productos por peso devuelve el precio por gramo.
func (p *Product) UnitPrice(v *Variant) decimal.Decimal {
	if p.PricePerGram != nil {
		return *p.PricePerGram
	}
	if v != nil {
		return p.Price.Add(v.PriceDelta)
	}
	return p.Price
}

// ProductPatch conjunto de campos a modificar; solo se aplican los no nulos.
// No permite tocar Cost ni stock (se manejan vía movimientos).
type ProductPatch struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	TaxRate           *decimal.Decimal
	PricePerGram      *decimal.Decimal
	ClearPricePerGram bool
	UnitMeasure       *string
	Active            *bool
}

// IsEmpty indica si el patch no cambia nada.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.TaxRate == nil &&
		p.PricePerGram == nil && !p.ClearPricePerGram && p.UnitMeasure == nil && p.Active == nil
}

// Apply devuelve una copia del producto con los cambios aplicados.
func (p ProductPatch) Apply(prod Product, now time.Time) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.TaxRate != nil {
		prod.TaxRate = *p.TaxRate
	}
	if p.ClearPricePerGram {
		prod.PricePerGram = nil
	} else if p.PricePerGram != nil {
		v := *p.PricePerGram
		prod.PricePerGram = &v
	}
	if p.UnitMeasure != nil {
		prod.UnitMeasure = *p.UnitMeasure
	}
	if p.Active != nil {
		prod.Active = *p.Active
	}
	prod.UpdatedAt = now
	return prod
}
