package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/pkg/config"
)

// Pruebas contra una base real: se omiten si DATABASE_URL no está definida.
// Cada prueba usa ids propios, así se pueden repetir sobre la misma base.

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openDB(t *testing.T) (*pgxpool.Pool, *postgres.TxRunner) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL no definida")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool, postgres.NewTxRunner(pool, 5, nil)
}

func uniqueID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, price string) string {
	t.Helper()
	now := time.Now().UTC()
	id := uniqueID("prod")
	require.NoError(t, postgres.Repos(pool).Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, Price: d(price), Cost: decimal.Zero, TaxRate: decimal.Zero,
		UnitMeasure: "94", Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func seedCustomer(t *testing.T, pool *pgxpool.Pool, limit string) string {
	t.Helper()
	now := time.Now().UTC()
	id := uniqueID("cli")
	require.NoError(t, postgres.Repos(pool).Customers.Create(context.Background(), &entity.Customer{
		ID: id, Name: id, CreditEnabled: true, CreditLimit: d(limit), CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func applyAdjustment(runner *postgres.TxRunner, key entity.StockKey, qty string) error {
	ledger := inventory.NewLedger(domain.SystemClock{}, nil)
	return runner.Run(context.Background(), func(tx repository.Repos) error {
		_, err := ledger.ApplyMovement(context.Background(), tx.Movements, tx.Stock, inventory.MovementInput{
			Key: key, Type: entity.MovementAdjustment, Delta: d(qty), Reason: "Stock inicial",
		})
		return err
	})
}

func adjust(t *testing.T, runner *postgres.TxRunner, key entity.StockKey, qty string) {
	t.Helper()
	require.NoError(t, applyAdjustment(runner, key, qty))
}

func TestPostgres_VentasConcurrentesNoDejanStockNegativo(t *testing.T) {
	pool, runner := openDB(t)
	ctx := context.Background()
	productID := seedProduct(t, pool, "1000")
	key := entity.StockKey{ProductID: productID}
	const units = 5
	adjust(t, runner, key, "5")

	uc := sales.NewSaleUseCase(runner, inventory.NewLedger(domain.SystemClock{}, nil), nil, nil, sales.DefaultConfig(), nil)
	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < units*3; i++ {
		g.Go(func() error {
			_, err := uc.CreateSale(ctx, dto.CreateSaleRequest{
				Items:    []dto.SaleItemRequest{{ProductID: productID, Quantity: d("1")}},
				Payments: []dto.SalePaymentRequest{{Method: "CASH", Amount: d("1000")}},
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, units, ok.Load())
	assert.EqualValues(t, units*2, rejected.Load())

	stock, err := postgres.Repos(pool).Stock.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, stock.Quantity.IsZero(), "stock final %s", stock.Quantity)

	movements, err := postgres.Repos(pool).Movements.ListByProduct(ctx, productID, "")
	require.NoError(t, err)
	assert.Len(t, movements, units+1)
}

// La fila de stock no existe: la primera transacción la inserta y todas la bloquean.
func TestPostgres_EntradasConcurrentesSobreFilaInexistente(t *testing.T) {
	pool, runner := openDB(t)
	key := entity.StockKey{ProductID: seedProduct(t, pool, "500")}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error { return applyAdjustment(runner, key, "1") })
	}
	require.NoError(t, g.Wait())

	stock, err := postgres.Repos(pool).Stock.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "8", stock.Quantity.String())
}

func TestPostgres_AbonosConcurrentesNoExcedenDeuda(t *testing.T) {
	pool, runner := openDB(t)
	ctx := context.Background()
	productID := seedProduct(t, pool, "100")
	adjust(t, runner, entity.StockKey{ProductID: productID}, "10")
	customerID := seedCustomer(t, pool, "100000")

	sale, err := sales.NewSaleUseCase(runner, inventory.NewLedger(domain.SystemClock{}, nil), nil, nil, sales.DefaultConfig(), nil).
		CreateSale(ctx, dto.CreateSaleRequest{
			CustomerID: customerID,
			Items:      []dto.SaleItemRequest{{ProductID: productID, Quantity: d("1")}},
			Payments:   []dto.SalePaymentRequest{{Method: "CREDIT", Amount: d("100")}},
		})
	require.NoError(t, err)

	settlement := credit.NewSettlementUseCase(runner, nil, nil, nil, credit.DefaultConfig(), nil)
	var ok, noDebt atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := settlement.RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: customerID, Amount: d("25"), Method: "CASH"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrNoOutstandingDebt), errors.Is(err, domain.ErrOverpaymentRejected):
				noDebt.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 4, ok.Load())
	assert.EqualValues(t, 4, noDebt.Load())

	repos := postgres.Repos(pool)
	cs, err := repos.Credits.GetBySaleID(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, cs)
	assert.Equal(t, entity.CreditPaid, cs.Status)
	assert.True(t, cs.RemainingBalance.IsZero())
	assert.Equal(t, "100", cs.PaidAmount.String())

	payments, err := repos.CreditPayments.ListByCreditSale(ctx, cs.ID)
	require.NoError(t, err)
	require.Len(t, payments, 4)
	total := decimal.Zero
	for _, p := range payments {
		assert.Equal(t, cs.ID, p.CreditSaleID)
		assert.Equal(t, customerID, p.CustomerID)
		assert.Equal(t, entity.PaymentMethod("CASH"), p.Method)
		total = total.Add(p.Amount)
	}
	assert.Equal(t, "100", total.String())
}

func TestPostgres_AbonoRoundTrip(t *testing.T) {
	pool, runner := openDB(t)
	ctx := context.Background()
	productID := seedProduct(t, pool, "300")
	adjust(t, runner, entity.StockKey{ProductID: productID}, "5")
	customerID := seedCustomer(t, pool, "10000")

	saleUC := sales.NewSaleUseCase(runner, inventory.NewLedger(domain.SystemClock{}, nil), nil, nil, sales.DefaultConfig(), nil)
	var saleIDs []string
	for i := 0; i < 2; i++ {
		sale, err := saleUC.CreateSale(ctx, dto.CreateSaleRequest{
			CustomerID: customerID,
			Items:      []dto.SaleItemRequest{{ProductID: productID, Quantity: d("1")}},
			Payments:   []dto.SalePaymentRequest{{Method: "CREDIT", Amount: d("300")}},
		})
		require.NoError(t, err)
		saleIDs = append(saleIDs, sale.ID)
	}

	created, err := credit.NewSettlementUseCase(runner, nil, nil, nil, credit.DefaultConfig(), nil).
		RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: customerID, Amount: d("450"), Method: "NEQUI", Notes: "abono parcial", UserID: "cajero-1"})
	require.NoError(t, err)
	require.Len(t, created, 2)

	repos := postgres.Repos(pool)
	first, err := repos.Credits.GetBySaleID(ctx, saleIDs[0])
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := repos.Credits.GetBySaleID(ctx, saleIDs[1])
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, entity.CreditPaid, first.Status)
	assert.Equal(t, "150", second.RemainingBalance.String())

	got, err := repos.CreditPayments.ListByCreditSale(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created[1].ID, got[0].ID)
	assert.Equal(t, "150", got[0].Amount.String())
	assert.Equal(t, entity.PaymentMethod("NEQUI"), got[0].Method)
	assert.Equal(t, "abono parcial", got[0].Notes)
	assert.Equal(t, "cajero-1", got[0].CreatedBy)
	assert.WithinDuration(t, created[1].CreatedAt, got[0].CreatedAt, time.Millisecond)

	open, err := repos.Credits.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, first.ID, open[0].ID)
}
