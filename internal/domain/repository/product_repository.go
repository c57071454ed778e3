package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product y sus Variant (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	CreateVariant(ctx context.Context, variant *entity.Variant) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	GetVariant(ctx context.Context, productID, variantID string) (*entity.Variant, error)
	ListVariants(ctx context.Context, productID string) ([]*entity.Variant, error)
	Update(ctx context.Context, product *entity.Product) error
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
}
