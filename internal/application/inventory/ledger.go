package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	inv "github.com/jhoicas/Ventas-api/internal/domain/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Availability resultado de CheckAvailability.
type Availability struct {
	OK        bool
	Quantity  decimal.Decimal
	Available decimal.Decimal
}

// MovementInput movimiento a aplicar. Delta con signo: positivo entrada, negativo salida.
type MovementInput struct {
	Key       entity.StockKey
	Type      entity.MovementType
	Delta     decimal.Decimal
	UnitCost  decimal.Decimal
	Reference string
	Reason    string
	CreatedBy string
}

// Ledger motor de stock. Opera siempre con los repositorios de la transacción del caller:
// el stock solo cambia agregando un InventoryMovement.
type Ledger struct {
	clock domain.Clock
	log   *logger.Logger
}

// NewLedger construye el motor de stock.
func NewLedger(clock domain.Clock, log *logger.Logger) *Ledger {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{clock: clock, log: log}
}

// CheckAvailability verifica si hay qty disponible para la clave. No modifica el stock;
// la fila queda bloqueada hasta el fin de la transacción para que el check y el apply vean lo mismo.
func (l *Ledger) CheckAvailability(ctx context.Context, stockRepo repository.StockRepository, key entity.StockKey, qty decimal.Decimal) (Availability, error) {
	stock, err := stockRepo.GetForUpdate(ctx, key)
	if err != nil {
		return Availability{}, err
	}
	avail := stock.Available()
	return Availability{
		OK:        avail.GreaterThanOrEqual(qty),
		Quantity:  stock.Quantity,
		Available: avail,
	}, nil
}

// ApplyMovement bloquea la fila (SELECT FOR UPDATE), calcula QuantityAfter = QuantityBefore + Delta,
// rechaza con *domain.StockError si el disponible quedaría negativo, agrega el movimiento
// y actualiza la fila de stock en la misma transacción.
func (l *Ledger) ApplyMovement(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	in MovementInput,
) (*entity.InventoryMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	stock, err := stockRepo.GetForUpdate(ctx, in.Key)
	if err != nil {
		return nil, err
	}
	before := stock.Quantity
	after := before.Add(in.Delta)
	if in.Delta.IsNegative() && after.Sub(stock.Reserved).IsNegative() {
		return nil, &domain.StockError{
			LineIndex: -1,
			ProductID: in.Key.ProductID,
			VariantID: in.Key.VariantID,
			Requested: in.Delta.Neg(),
			Available: stock.Available(),
		}
	}

	now := l.clock.Now()
	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      in.Key.ProductID,
		VariantID:      in.Key.VariantID,
		WarehouseID:    in.Key.WarehouseID,
		Type:           in.Type,
		Quantity:       in.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		UnitCost:       in.UnitCost,
		Reference:      in.Reference,
		Reason:         in.Reason,
		CreatedAt:      now,
		CreatedBy:      in.CreatedBy,
	}
	mov.TotalCost = inv.MovementCost(*mov)
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, fmt.Errorf("crear movimiento: %w", err)
	}

	stock.Quantity = after
	stock.LastMovementID = mov.ID
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return nil, fmt.Errorf("actualizar stock: %w", err)
	}

	l.log.Debug().
		Str("product_id", mov.ProductID).
		Str("variant_id", mov.VariantID).
		Str("type", string(mov.Type)).
		Str("delta", mov.Quantity.String()).
		Str("after", after.String()).
		Str("reference", mov.Reference).
		Msg("movimiento aplicado")
	return mov, nil
}

func validateMovement(in MovementInput) error {
	if in.Key.ProductID == "" {
		return fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if in.Delta.IsZero() {
		return fmt.Errorf("%w: la cantidad no puede ser cero", domain.ErrInvalidInput)
	}
	if in.Type.IsOutgoing() && in.Delta.IsPositive() {
		return fmt.Errorf("%w: %s exige cantidad negativa", domain.ErrInvalidInput, in.Type)
	}
	if in.Type.IsIncoming() && in.Delta.IsNegative() {
		return fmt.Errorf("%w: %s exige cantidad positiva", domain.ErrInvalidInput, in.Type)
	}
	if in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	return nil
}

// ResolveProduct carga el producto y, si aplica, su variante. Un producto con variantes exige
// variantID; uno sin variantes no admite variantID.
func ResolveProduct(ctx context.Context, products repository.ProductRepository, productID, variantID string) (*entity.Product, *entity.Variant, error) {
	product, err := products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if !product.HasVariants {
		if variantID != "" {
			return nil, nil, fmt.Errorf("%w: el producto %s no tiene variantes", domain.ErrInvalidInput, product.SKU)
		}
		return product, nil, nil
	}
	if variantID == "" {
		return nil, nil, fmt.Errorf("%w: el producto %s requiere variante", domain.ErrInvalidInput, product.SKU)
	}
	variant, err := products.GetVariant(ctx, productID, variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil {
		return nil, nil, fmt.Errorf("%w: variante %s", domain.ErrProductNotFound, variantID)
	}
	return product, variant, nil
}
