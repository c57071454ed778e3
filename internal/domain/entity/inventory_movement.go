package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

const (
	MovementPurchase   MovementType = "PURCHASE"   // entrada por compra
	MovementSale       MovementType = "SALE"       // salida por venta
	MovementAdjustment MovementType = "ADJUSTMENT" // ajuste (+/-), incluye stock inicial
	MovementReturn     MovementType = "RETURN"     // devolución o anulación de venta
	MovementDamage     MovementType = "DAMAGE"     // baja por daño o vencimiento
	MovementTransfer   MovementType = "TRANSFER"   // traslado entre bodegas
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment, MovementReturn, MovementDamage, MovementTransfer:
		return true
	}
	return false
}

// IsOutgoing tipos que solo admiten delta negativo.
func (t MovementType) IsOutgoing() bool {
	return t == MovementSale || t == MovementDamage
}

// IsIncoming tipos que solo admiten delta positivo.
func (t MovementType) IsIncoming() bool {
	return t == MovementPurchase || t == MovementReturn
}

// InventoryMovement registro inmutable (append-only). QuantityAfter = QuantityBefore + Quantity.
type InventoryMovement struct {
	ID             string
	ProductID      string
	VariantID      string
	WarehouseID    string
	Type           MovementType
	Quantity       decimal.Decimal // delta con signo: positivo entrada, negativo salida
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	Reference      string // documento origen (ID de venta, compra, traslado)
	Reason         string
	CreatedAt      time.Time
	CreatedBy      string
}

// Key clave de stock afectada por el movimiento.
func (m InventoryMovement) Key() StockKey {
	return StockKey{ProductID: m.ProductID, VariantID: m.VariantID, WarehouseID: m.WarehouseID}
}
