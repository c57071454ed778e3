package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una fila de stock: producto, variante opcional y bodega opcional.
type StockKey struct {
	ProductID   string
	VariantID   string
	WarehouseID string
}

// Less orden total usado para bloquear filas siempre en la misma secuencia.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.VariantID != o.VariantID {
		return k.VariantID < o.VariantID
	}
	return k.WarehouseID < o.WarehouseID
}

// InventoryStock stock materializado por clave. Quantity solo cambia al agregar un InventoryMovement.
type InventoryStock struct {
	ProductID      string
	VariantID      string
	WarehouseID    string
	Quantity       decimal.Decimal
	Reserved       decimal.Decimal
	ReorderPoint   decimal.Decimal
	ReorderQty     decimal.Decimal
	LastMovementID string
	UpdatedAt      time.Time
}

// Key devuelve la clave de la fila.
func (s InventoryStock) Key() StockKey {
	return StockKey{ProductID: s.ProductID, VariantID: s.VariantID, WarehouseID: s.WarehouseID}
}

// Available cantidad disponible = Quantity - Reserved.
func (s InventoryStock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.Reserved)
}

// EmptyStock fila vacía para una clave sin movimientos.
func EmptyStock(k StockKey) *InventoryStock {
	return &InventoryStock{
		ProductID:    k.ProductID,
		VariantID:    k.VariantID,
		WarehouseID:  k.WarehouseID,
		Quantity:     decimal.Zero,
		Reserved:     decimal.Zero,
		ReorderPoint: decimal.Zero,
		ReorderQty:   decimal.Zero,
	}
}
