package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository          = (*saleRepo)(nil)
	_ repository.CreditSaleRepository    = (*creditSaleRepo)(nil)
	_ repository.CreditPaymentRepository = (*creditPaymentRepo)(nil)
)

type saleRepo struct{ a access }

func copySale(s entity.Sale) *entity.Sale {
	s.Items = append([]entity.SaleItem(nil), s.Items...)
	s.Payments = append([]entity.SalePayment(nil), s.Payments...)
	return &s
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.sales[sale.ID]; ok {
			return fmt.Errorf("venta %s: %w", sale.ID, domain.ErrDuplicate)
		}
		st.sales[sale.ID] = *copySale(*sale)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.a.do(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) Cancel(_ context.Context, id string, c entity.SaleCancellation) error {
	return r.a.do(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrSaleNotFound
		}
		if s.Status != entity.SaleStatusCompleted {
			return fmt.Errorf("%w: venta %s en estado %s", domain.ErrInvalidState, id, s.Status)
		}
		st.sales[id] = c.Apply(s)
		return nil
	})
}

type creditSaleRepo struct{ a access }

func (r *creditSaleRepo) Create(_ context.Context, credit *entity.CreditSale) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.credits[credit.ID]; ok {
			return fmt.Errorf("fiado %s: %w", credit.ID, domain.ErrDuplicate)
		}
		for _, c := range st.credits {
			if c.SaleID == credit.SaleID {
				return fmt.Errorf("fiado de la venta %s: %w", credit.SaleID, domain.ErrDuplicate)
			}
		}
		st.credits[credit.ID] = *credit
		return nil
	})
}

func (r *creditSaleRepo) GetBySaleID(_ context.Context, saleID string) (*entity.CreditSale, error) {
	var out *entity.CreditSale
	err := r.a.do(func(st *state) error {
		for _, c := range st.credits {
			if c.SaleID == saleID {
				out = &c
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *creditSaleRepo) list(filter func(entity.CreditSale) bool) ([]*entity.CreditSale, error) {
	var out []*entity.CreditSale
	err := r.a.do(func(st *state) error {
		for _, c := range st.credits {
			if filter(c) {
				out = append(out, &c)
			}
		}
		return nil
	})
	sortFIFO(out)
	return out, err
}

func (r *creditSaleRepo) ListByCustomer(_ context.Context, customerID string) ([]*entity.CreditSale, error) {
	return r.list(func(c entity.CreditSale) bool { return c.CustomerID == customerID })
}

func (r *creditSaleRepo) ListOpenForUpdate(_ context.Context, customerID string) ([]*entity.CreditSale, error) {
	return r.list(func(c entity.CreditSale) bool { return c.CustomerID == customerID && c.IsOpen() })
}

func (r *creditSaleRepo) ListOverdueCandidates(_ context.Context, now time.Time) ([]*entity.CreditSale, error) {
	return r.list(func(c entity.CreditSale) bool { return c.EffectiveStatus(now) == entity.CreditOverdue && c.Status == entity.CreditPending })
}

func (r *creditSaleRepo) Update(_ context.Context, id string, patch entity.CreditSalePatch) error {
	return r.a.do(func(st *state) error {
		c, ok := st.credits[id]
		if !ok {
			return fmt.Errorf("fiado %s: %w", id, domain.ErrNotFound)
		}
		st.credits[id] = patch.Apply(c)
		return nil
	})
}

// sortFIFO orden de cobro: SaleDate, luego CreatedAt, luego ID (UUIDv7, orden de creación).
func sortFIFO(list []*entity.CreditSale) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.SaleDate.Equal(b.SaleDate) {
			return a.SaleDate.Before(b.SaleDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

type creditPaymentRepo struct{ a access }

func (r *creditPaymentRepo) Create(_ context.Context, p *entity.CreditPayment) error {
	return r.a.do(func(st *state) error {
		if _, ok := st.credits[p.CreditSaleID]; !ok {
			return fmt.Errorf("fiado %s: %w", p.CreditSaleID, domain.ErrNotFound)
		}
		st.payments = append(st.payments, *p)
		return nil
	})
}

func (r *creditPaymentRepo) ListByCreditSale(_ context.Context, creditSaleID string) ([]*entity.CreditPayment, error) {
	var out []*entity.CreditPayment
	err := r.a.do(func(st *state) error {
		for _, p := range st.payments {
			if p.CreditSaleID == creditSaleID {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}
