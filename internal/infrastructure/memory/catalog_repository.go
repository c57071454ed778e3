package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.CustomerRepository = (*customerRepo)(nil)
)

type productRepo struct{ a access }

func copyProduct(p entity.Product) *entity.Product {
	if p.PricePerGram != nil {
		v := *p.PricePerGram
		p.PricePerGram = &v
	}
	return &p
}

func (r *productRepo) Create(_ context.Context, product *entity.Product) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return fmt.Errorf("producto %s: %w", product.ID, domain.ErrDuplicate)
		}
		for _, p := range st.products {
			if p.SKU == product.SKU {
				return fmt.Errorf("sku %s: %w", product.SKU, domain.ErrDuplicate)
			}
		}
		st.products[product.ID] = *copyProduct(*product)
		return nil
	})
}

func (r *productRepo) CreateVariant(_ context.Context, variant *entity.Variant) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.products[variant.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
		if _, ok := st.variants[variant.ID]; ok {
			return fmt.Errorf("variante %s: %w", variant.ID, domain.ErrDuplicate)
		}
		for _, v := range st.variants {
			if v.SKU == variant.SKU {
				return fmt.Errorf("sku %s: %w", variant.SKU, domain.ErrDuplicate)
			}
		}
		st.variants[variant.ID] = *variant
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.do(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				out = copyProduct(p)
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetVariant(_ context.Context, productID, variantID string) (*entity.Variant, error) {
	var out *entity.Variant
	err := r.a.do(func(st *state) error {
		if v, ok := st.variants[variantID]; ok && v.ProductID == productID {
			out = &v
		}
		return nil
	})
	return out, err
}

func (r *productRepo) ListVariants(_ context.Context, productID string) ([]*entity.Variant, error) {
	var out []*entity.Variant
	err := r.a.do(func(st *state) error {
		for _, v := range st.variants {
			if v.ProductID == productID {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, err
}

func (r *productRepo) Update(_ context.Context, product *entity.Product) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrProductNotFound
		}
		st.products[product.ID] = *copyProduct(*product)
		return nil
	})
}

func (r *productRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	return r.a.do(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return domain.ErrProductNotFound
		}
		p.Cost = cost
		st.products[productID] = p
		return nil
	})
}

type customerRepo struct{ a access }

func (r *customerRepo) Create(_ context.Context, customer *entity.Customer) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.customers[customer.ID]; ok {
			return fmt.Errorf("cliente %s: %w", customer.ID, domain.ErrDuplicate)
		}
		st.customers[customer.ID] = *customer
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.a.do(func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// GetForUpdate dentro de Run el mutex del Store ya serializa; equivale a GetByID.
func (r *customerRepo) GetForUpdate(ctx context.Context, id string) (*entity.Customer, error) {
	return r.GetByID(ctx, id)
}

func (r *customerRepo) Update(_ context.Context, customer *entity.Customer) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.customers[customer.ID]; !ok {
			return domain.ErrCustomerNotFound
		}
		st.customers[customer.ID] = *customer
		return nil
	})
}
