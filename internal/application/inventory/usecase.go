package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	inv "github.com/jhoicas/Ventas-api/internal/domain/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// RegisterMovementUseCase registra movimientos de inventario fuera de una venta
// (PURCHASE, ADJUSTMENT, DAMAGE, TRANSFER) de forma transaccional con bloqueo de fila.
// SALE y RETURN quedan reservados al motor de ventas.
type RegisterMovementUseCase struct {
	txRunner TxRunner
	ledger   *Ledger
	log      *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner TxRunner, ledger *Ledger, log *logger.Logger) *RegisterMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterMovementUseCase{txRunner: txRunner, ledger: ledger, log: log.Component("inventory")}
}

// MovementInputDTO entrada para registrar un movimiento de inventario.
// Quantity siempre positiva salvo en ADJUSTMENT (con signo). UnitCost obligatorio en PURCHASE.
// Para TRANSFER: FromWarehouseID y ToWarehouseID en lugar de WarehouseID.
type MovementInputDTO struct {
	UserID          string
	ProductID       string
	VariantID       string
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Type            entity.MovementType
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	Reference       string
	Reason          string
}

// RegisterMovement valida la entrada, inicia una transacción y aplica el movimiento vía Ledger.
// Devuelve los movimientos creados (dos en TRANSFER).
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) ([]*entity.InventoryMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}
	if input.Reference == "" {
		input.Reference = uuid.New().String()
	}

	var created []*entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		created = nil
		product, _, err := ResolveProduct(ctx, tx.Products, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}
		switch input.Type {
		case entity.MovementPurchase:
			m, err := uc.doPURCHASE(ctx, tx, product, input)
			if err != nil {
				return err
			}
			created = append(created, m)
		case entity.MovementAdjustment, entity.MovementDamage:
			delta := input.Quantity
			if input.Type == entity.MovementDamage {
				delta = delta.Neg()
			}
			m, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, MovementInput{
				Key:       entity.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, WarehouseID: input.WarehouseID},
				Type:      input.Type,
				Delta:     delta,
				UnitCost:  costOr(input.UnitCost, product.Cost),
				Reference: input.Reference,
				Reason:    input.Reason,
				CreatedBy: input.UserID,
			})
			if err != nil {
				return err
			}
			created = append(created, m)
		case entity.MovementTransfer:
			ms, err := uc.doTRANSFER(ctx, tx, product, input)
			if err != nil {
				return err
			}
			created = append(created, ms...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", input.ProductID).
		Str("type", string(input.Type)).
		Str("quantity", input.Quantity.String()).
		Str("reference", input.Reference).
		Msg("movimiento registrado")
	return created, nil
}

// doPURCHASE: recalcula el costo promedio ponderado con el stock total del producto y suma la entrada.
func (uc *RegisterMovementUseCase) doPURCHASE(ctx context.Context, tx repository.Repos, product *entity.Product, input MovementInputDTO) (*entity.InventoryMovement, error) {
	key := entity.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, WarehouseID: input.WarehouseID}
	// Bloquea la fila antes de leer el total para que dos compras simultáneas no pisen el costo
	if _, err := tx.Stock.GetForUpdate(ctx, key); err != nil {
		return nil, err
	}
	rows, err := tx.Stock.ListByProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	onHand := decimal.Zero
	for _, r := range rows {
		onHand = onHand.Add(r.Quantity)
	}
	unitCost := *input.UnitCost
	newCost := inv.WeightedAverageCost(onHand, product.Cost, input.Quantity, unitCost)
	if err := tx.Products.UpdateCost(ctx, input.ProductID, newCost); err != nil {
		return nil, err
	}
	return uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, MovementInput{
		Key:       key,
		Type:      entity.MovementPurchase,
		Delta:     input.Quantity,
		UnitCost:  unitCost,
		Reference: input.Reference,
		Reason:    input.Reason,
		CreatedBy: input.UserID,
	})
}

// doTRANSFER: resta de bodega origen y suma en destino en la misma transacción; dos registros.
func (uc *RegisterMovementUseCase) doTRANSFER(ctx context.Context, tx repository.Repos, product *entity.Product, input MovementInputDTO) ([]*entity.InventoryMovement, error) {
	from := entity.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, WarehouseID: input.FromWarehouseID}
	to := entity.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, WarehouseID: input.ToWarehouseID}

	// Bloqueo en orden de clave para no cruzarse con un traslado inverso
	keys := []entity.StockKey{from, to}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		if _, err := tx.Stock.GetForUpdate(ctx, k); err != nil {
			return nil, err
		}
	}

	out, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, MovementInput{
		Key:       from,
		Type:      entity.MovementTransfer,
		Delta:     input.Quantity.Neg(),
		UnitCost:  product.Cost,
		Reference: input.Reference,
		Reason:    input.Reason,
		CreatedBy: input.UserID,
	})
	if err != nil {
		return nil, err
	}
	in, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, MovementInput{
		Key:       to,
		Type:      entity.MovementTransfer,
		Delta:     input.Quantity,
		UnitCost:  product.Cost,
		Reference: input.Reference,
		Reason:    input.Reason,
		CreatedBy: input.UserID,
	})
	if err != nil {
		return nil, err
	}
	return []*entity.InventoryMovement{out, in}, nil
}

func validateMovementInput(input MovementInputDTO) error {
	if input.ProductID == "" {
		return fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	switch input.Type {
	case entity.MovementPurchase:
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: la compra exige cantidad positiva", domain.ErrInvalidInput)
		}
		if input.UnitCost == nil || input.UnitCost.IsNegative() {
			return fmt.Errorf("%w: la compra exige costo unitario", domain.ErrInvalidInput)
		}
	case entity.MovementAdjustment:
		if input.Quantity.IsZero() {
			return fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
		}
	case entity.MovementDamage:
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: la baja exige cantidad positiva", domain.ErrInvalidInput)
		}
	case entity.MovementTransfer:
		if input.FromWarehouseID == "" || input.ToWarehouseID == "" || input.FromWarehouseID == input.ToWarehouseID {
			return fmt.Errorf("%w: traslado exige bodegas origen y destino distintas", domain.ErrInvalidInput)
		}
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: el traslado exige cantidad positiva", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo %q no admitido fuera de una venta", domain.ErrInvalidInput, input.Type)
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	return nil
}

func costOr(c *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if c != nil {
		return *c
	}
	return def
}
