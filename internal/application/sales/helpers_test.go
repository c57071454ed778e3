package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

var now = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// spyCache registra los clientes invalidados.
type spyCache struct {
	mu  sync.Mutex
	ids []string
}

func (c *spyCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return nil
}

func (c *spyCache) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

type env struct {
	store *memory.Store
	cache *spyCache
	uc    *sales.SaleUseCase
	ctx   context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	clock := domain.FixedClock{T: now}
	cache := &spyCache{}
	return &env{
		store: st,
		cache: cache,
		uc:    sales.NewSaleUseCase(st, inventory.NewLedger(clock, nil), cache, clock, sales.DefaultConfig(), nil),
		ctx:   context.Background(),
	}
}

func (e *env) repos() repository.Repos { return e.store.Repos() }

// product crea un producto sin variantes con stock inicial.
func (e *env) product(t *testing.T, id, price, tax, stock string) {
	t.Helper()
	require.NoError(t, e.repos().Products.Create(e.ctx, &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, Price: d(price), Cost: d("100"), TaxRate: d(tax),
		UnitMeasure: "94", Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	e.addStock(t, entity.StockKey{ProductID: id}, stock)
}

func (e *env) addStock(t *testing.T, key entity.StockKey, qty string) {
	t.Helper()
	if d(qty).IsZero() {
		return
	}
	ledger := inventory.NewLedger(domain.FixedClock{T: now}, nil)
	require.NoError(t, e.store.Run(e.ctx, func(tx repository.Repos) error {
		_, err := ledger.ApplyMovement(e.ctx, tx.Movements, tx.Stock, inventory.MovementInput{
			Key: key, Type: entity.MovementAdjustment, Delta: d(qty), Reason: "Initial stock",
		})
		return err
	}))
}

func (e *env) customer(t *testing.T, id string, creditEnabled bool, limit string) {
	t.Helper()
	require.NoError(t, e.repos().Customers.Create(e.ctx, &entity.Customer{
		ID: id, Name: id, CreditEnabled: creditEnabled, CreditLimit: d(limit), CreatedAt: now, UpdatedAt: now,
	}))
}

// openCredit registra una cuenta abierta previa del cliente.
func (e *env) openCredit(t *testing.T, customerID, saleID, remaining string) {
	t.Helper()
	require.NoError(t, e.repos().Credits.Create(e.ctx, &entity.CreditSale{
		ID: "cs-" + saleID, SaleID: saleID, CustomerID: customerID,
		TotalAmount: d(remaining), PaidAmount: decimal.Zero, RemainingBalance: d(remaining),
		Status: entity.CreditPending, SaleDate: now.AddDate(0, -1, 0), CreatedAt: now, UpdatedAt: now,
	}))
}

func (e *env) stock(t *testing.T, key entity.StockKey) decimal.Decimal {
	t.Helper()
	s, err := e.repos().Stock.Get(e.ctx, key)
	require.NoError(t, err)
	return s.Quantity
}
