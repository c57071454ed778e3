package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// InitialStockReason motivo del ADJUSTMENT que siembra el stock de un producto nuevo.
const InitialStockReason = "Initial stock"

var validTaxRates = []decimal.Decimal{decimal.Zero, decimal.NewFromInt(5), decimal.NewFromInt(19)}

// ProductUseCase alta y edición de productos. Cost y stock se manejan vía movimientos.
type ProductUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.Ledger
	clock    domain.Clock
	log      *logger.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner inventory.TxRunner, ledger *inventory.Ledger, clock domain.Clock, log *logger.Logger) *ProductUseCase {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{txRunner: txRunner, ledger: ledger, clock: clock, log: log.Component("catalog")}
}

// ProductWithVariants producto creado junto con sus variantes.
type ProductWithVariants struct {
	Product  *entity.Product
	Variants []*entity.Variant
}

// Create crea el producto y sus variantes. El stock inicial nunca se escribe directo en la fila:
// se emite un movimiento ADJUSTMENT "Initial stock" por producto o por variante con stock > 0.
// Cost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*ProductWithVariants, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if !isValidTaxRate(in.TaxRate) {
		return nil, fmt.Errorf("%w: tarifa de IVA %s no admitida (0, 5, 19)", domain.ErrInvalidInput, in.TaxRate)
	}
	if len(in.Variants) > 0 && in.InitialStock.IsPositive() {
		return nil, fmt.Errorf("%w: con variantes el stock inicial va en cada variante", domain.ErrInvalidInput)
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "94"
	}

	now := uc.clock.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Cost:         decimal.Zero,
		TaxRate:      in.TaxRate,
		PricePerGram: in.PricePerGram,
		UnitMeasure:  in.UnitMeasure,
		HasVariants:  len(in.Variants) > 0,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	out := &ProductWithVariants{Product: product}

	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		out.Variants = nil
		if existing, err := tx.Products.GetBySKU(ctx, in.SKU); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("sku %s: %w", in.SKU, domain.ErrDuplicate)
		}
		if err := tx.Products.Create(ctx, product); err != nil {
			return err
		}

		if !product.HasVariants {
			return uc.seedStock(ctx, tx, in, entity.StockKey{ProductID: product.ID, WarehouseID: in.WarehouseID}, in.InitialStock)
		}
		for _, vin := range in.Variants {
			v := &entity.Variant{
				ID:         uuid.New().String(),
				ProductID:  product.ID,
				SKU:        vin.SKU,
				Name:       vin.Name,
				PriceDelta: vin.PriceDelta,
				Active:     true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Products.CreateVariant(ctx, v); err != nil {
				return err
			}
			key := entity.StockKey{ProductID: product.ID, VariantID: v.ID, WarehouseID: in.WarehouseID}
			if err := uc.seedStock(ctx, tx, in, key, vin.InitialStock); err != nil {
				return err
			}
			out.Variants = append(out.Variants, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Int("variants", len(out.Variants)).Msg("producto creado")
	return out, nil
}

// seedStock registra los umbrales de reorden y el ADJUSTMENT inicial de una clave.
func (uc *ProductUseCase) seedStock(ctx context.Context, tx repository.Repos, in dto.CreateProductRequest, key entity.StockKey, qty decimal.Decimal) error {
	if in.ReorderPoint.IsPositive() || in.ReorderQty.IsPositive() {
		row, err := tx.Stock.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		row.ReorderPoint = in.ReorderPoint
		row.ReorderQty = in.ReorderQty
		row.UpdatedAt = uc.clock.Now()
		if err := tx.Stock.Upsert(ctx, row); err != nil {
			return err
		}
	}
	if !qty.IsPositive() {
		return nil
	}
	_, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, inventory.MovementInput{
		Key:       key,
		Type:      entity.MovementAdjustment,
		Delta:     qty,
		Reference: key.ProductID,
		Reason:    InitialStockReason,
		CreatedBy: in.UserID,
	})
	return err
}

// Update aplica un patch de campos. No permite modificar Cost ni stock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*entity.Product, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	patch := in.ToPatch()
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nada que actualizar", domain.ErrInvalidInput)
	}
	if patch.TaxRate != nil && !isValidTaxRate(*patch.TaxRate) {
		return nil, fmt.Errorf("%w: tarifa de IVA %s no admitida (0, 5, 19)", domain.ErrInvalidInput, *patch.TaxRate)
	}

	var updated entity.Product
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		product, err := tx.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		updated = patch.Apply(*product, uc.clock.Now())
		return tx.Products.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetByID obtiene un producto con sus variantes.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*ProductWithVariants, error) {
	var out *ProductWithVariants
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		product, err := tx.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		variants, err := tx.Products.ListVariants(ctx, id)
		if err != nil {
			return err
		}
		out = &ProductWithVariants{Product: product, Variants: variants}
		return nil
	})
	return out, err
}

func isValidTaxRate(rate decimal.Decimal) bool {
	for _, r := range validTaxRates {
		if rate.Equal(r) {
			return true
		}
	}
	return false
}
