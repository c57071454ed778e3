package dto

import "github.com/shopspring/decimal"

// RegisterMovementRequest movimiento de inventario fuera de una venta.
type RegisterMovementRequest struct {
	ProductID       string           `json:"product_id" validate:"required"`
	VariantID       string           `json:"variant_id,omitempty"`
	WarehouseID     string           `json:"warehouse_id,omitempty"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty"`
	Type            string           `json:"type" validate:"required,oneof=PURCHASE ADJUSTMENT DAMAGE TRANSFER"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	Reference       string           `json:"reference,omitempty" validate:"max=100"`
	Reason          string           `json:"reason,omitempty" validate:"max=300"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para una fila bajo su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	VariantID          string          `json:"variant_id,omitempty"`
	WarehouseID        string          `json:"warehouse_id,omitempty"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	Available          decimal.Decimal `json:"available"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	Deficit            decimal.Decimal `json:"deficit"`             // ReorderPoint - Available
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"` // ReorderQty o 1.5 × ReorderPoint - Available
	UnitCost           decimal.Decimal `json:"unit_cost"`           // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
