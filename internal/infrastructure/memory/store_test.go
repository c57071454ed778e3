package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func TestRun_ConfirmaSoloSinError(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.Run(ctx, func(tx repository.Repos) error {
		require.NoError(t, tx.Customers.Create(ctx, &entity.Customer{ID: "c1", Name: "Ana"}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	c, err := st.Repos().Customers.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, c, "la transacción fallida no debe publicar cambios")

	err = st.Run(ctx, func(tx repository.Repos) error {
		return tx.Customers.Create(ctx, &entity.Customer{ID: "c1", Name: "Ana"})
	})
	require.NoError(t, err)
	c, err = st.Repos().Customers.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ana", c.Name)
}

func TestRun_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.New().Run(ctx, func(repository.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestProductos_SKUDuplicado(t *testing.T) {
	repos := memory.New().Repos()
	ctx := context.Background()
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "p1", SKU: "A-1"}))
	err := repos.Products.Create(ctx, &entity.Product{ID: "p2", SKU: "A-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	p, err := repos.Products.GetBySKU(ctx, "A-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.ID)
}

func TestStock_ClaveSinFilaDevuelveCero(t *testing.T) {
	repos := memory.New().Repos()
	s, err := repos.Stock.Get(context.Background(), entity.StockKey{ProductID: "x"})
	require.NoError(t, err)
	assert.True(t, s.Quantity.IsZero())
	assert.Equal(t, "x", s.ProductID)
}

func TestMovimientos_RechazaDescuadre(t *testing.T) {
	repos := memory.New().Repos()
	err := repos.Movements.Create(context.Background(), &entity.InventoryMovement{
		ID: "m1", ProductID: "p1", Type: entity.MovementSale,
		Quantity:       decimal.NewFromInt(-2),
		QuantityBefore: decimal.NewFromInt(5),
		QuantityAfter:  decimal.NewFromInt(2),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFiados_OrdenFIFO(t *testing.T) {
	repos := memory.New().Repos()
	ctx := context.Background()
	mk := func(id, sale string, saleDate time.Time, created time.Time) {
		require.NoError(t, repos.Credits.Create(ctx, &entity.CreditSale{
			ID: id, SaleID: sale, CustomerID: "c1", Status: entity.CreditPending,
			TotalAmount: decimal.NewFromInt(10), RemainingBalance: decimal.NewFromInt(10),
			SaleDate: saleDate, CreatedAt: created,
		}))
	}
	mk("c", "s3", t0.Add(time.Hour), t0)
	mk("b", "s2", t0, t0.Add(time.Minute))
	mk("a", "s1", t0, t0.Add(time.Minute))
	mk("z", "s0", t0, t0)

	open, err := repos.Credits.ListOpenForUpdate(ctx, "c1")
	require.NoError(t, err)
	ids := make([]string, 0, len(open))
	for _, c := range open {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids)

	err = repos.Credits.Create(ctx, &entity.CreditSale{ID: "d", SaleID: "s1", CustomerID: "c1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "una venta genera a lo sumo un fiado")
}

func TestFiados_AbonoSinCuenta(t *testing.T) {
	repos := memory.New().Repos()
	err := repos.CreditPayments.Create(context.Background(), &entity.CreditPayment{ID: "p", CreditSaleID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFiados_CandidatosVencidos(t *testing.T) {
	repos := memory.New().Repos()
	ctx := context.Background()
	due := t0.Add(24 * time.Hour)
	require.NoError(t, repos.Credits.Create(ctx, &entity.CreditSale{
		ID: "a", SaleID: "s1", CustomerID: "c1", Status: entity.CreditPending,
		TotalAmount: decimal.NewFromInt(10), RemainingBalance: decimal.NewFromInt(10),
		SaleDate: t0, DueDate: &due,
	}))
	require.NoError(t, repos.Credits.Create(ctx, &entity.CreditSale{
		ID: "b", SaleID: "s2", CustomerID: "c1", Status: entity.CreditPaid,
		TotalAmount: decimal.NewFromInt(10), PaidAmount: decimal.NewFromInt(10),
		SaleDate: t0, DueDate: &due,
	}))

	list, err := repos.Credits.ListOverdueCandidates(ctx, t0)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repos.Credits.ListOverdueCandidates(ctx, due.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}
