package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// CreateVariantRequest variante a crear junto con el producto.
type CreateVariantRequest struct {
	SKU          string          `json:"sku" validate:"required,max=100"`
	Name         string          `json:"name" validate:"required,max=200"`
	PriceDelta   decimal.Decimal `json:"price_delta"`
	InitialStock decimal.Decimal `json:"initial_stock" validate:"gte=0"`
}

// CreateProductRequest entrada para crear un producto. Con Variants el stock inicial va por variante.
type CreateProductRequest struct {
	SKU          string                 `json:"sku" validate:"required,min=1,max=100"`
	Name         string                 `json:"name" validate:"required,min=1,max=200"`
	Description  string                 `json:"description"`
	Price        decimal.Decimal        `json:"price" validate:"gte=0"`
	TaxRate      decimal.Decimal        `json:"tax_rate" validate:"gte=0,lte=100"`
	PricePerGram *decimal.Decimal       `json:"price_per_gram,omitempty" validate:"omitempty,gt=0"`
	UnitMeasure  string                 `json:"unit_measure"`
	Variants     []CreateVariantRequest `json:"variants,omitempty" validate:"dive"`
	InitialStock decimal.Decimal        `json:"initial_stock" validate:"gte=0"`
	WarehouseID  string                 `json:"warehouse_id,omitempty"`
	ReorderPoint decimal.Decimal        `json:"reorder_point" validate:"gte=0"`
	ReorderQty   decimal.Decimal        `json:"reorder_qty" validate:"gte=0"`
	UserID       string                 `json:"-"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Cost ni Stock).
type UpdateProductRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string          `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	TaxRate           *decimal.Decimal `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	PricePerGram      *decimal.Decimal `json:"price_per_gram,omitempty" validate:"omitempty,gt=0"`
	ClearPricePerGram bool             `json:"clear_price_per_gram,omitempty"`
	UnitMeasure       *string          `json:"unit_measure,omitempty"`
	Active            *bool            `json:"active,omitempty"`
}

// ToPatch convierte la entrada en el patch de dominio.
func (r UpdateProductRequest) ToPatch() entity.ProductPatch {
	return entity.ProductPatch{
		Name:              r.Name,
		Description:       r.Description,
		Price:             r.Price,
		TaxRate:           r.TaxRate,
		PricePerGram:      r.PricePerGram,
		ClearPricePerGram: r.ClearPricePerGram,
		UnitMeasure:       r.UnitMeasure,
		Active:            r.Active,
	}
}
