// seed siembra un catálogo y clientes de demostración y registra una venta a fiado con un abono,
// para verificar de punta a punta el almacén configurado.
//
// Uso: go run ./cmd/seed
// Con STORE_DRIVER=memory no persiste nada; con postgres aplica el esquema antes de sembrar.
package main

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/catalog"
	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/pricing"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/jobs"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// txRunner lo implementan memory.Store y postgres.TxRunner.
type txRunner interface {
	Run(ctx context.Context, fn func(tx repository.Repos) error) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	ctx := context.Background()

	var (
		runner txRunner
		repos  repository.Repos
	)
	switch cfg.Store.Driver {
	case "memory":
		st := memory.New()
		runner, repos = st, st.Repos()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
		runner, repos = postgres.NewTxRunner(pool, cfg.Store.MaxAttempts, log), postgres.Repos(pool)
	}

	var (
		summaryCache *cache.CreditSummaryCache
		publisher    *jobs.Publisher
	)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, se siembra sin cache")
		} else {
			defer client.Close()
			summaryCache = cache.NewCreditSummaryCache(client, cfg.Redis.SummaryTTL)
			publisher = jobs.NewPublisher(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer publisher.Close()
		}
	}

	clock := domain.SystemClock{}
	ledger := inventory.NewLedger(clock, log)
	productUC := catalog.NewProductUseCase(runner, ledger, clock, log)
	customerUC := credit.NewCustomerUseCase(runner, optionalSummaryCache(summaryCache), clock)
	saleUC := sales.NewSaleUseCase(runner, ledger, optionalSaleCache(summaryCache), clock, sales.Config{
		PaymentTolerance: cfg.Sales.PaymentTolerance,
		DefaultTermDays:  cfg.Credit.DefaultTermDays,
		WarehouseID:      cfg.Sales.WarehouseID,
	}, log)
	settlementUC := credit.NewSettlementUseCase(runner, optionalSummaryCache(summaryCache), optionalPublisher(publisher), clock,
		credit.Config{OverpaymentTolerance: cfg.Credit.OverpaymentTolerance}, log)
	summaryUC := credit.NewSummaryUseCase(repos.Customers, repos.Credits, optionalSummaryCache(summaryCache), clock, log)

	pricePerGram := decimal.RequireFromString("32")
	products := []dto.CreateProductRequest{
		{SKU: "ARZ-500", Name: "Arroz 500 g", Price: dec("2500"), TaxRate: dec("5"), InitialStock: dec("120"),
			WarehouseID: cfg.Sales.WarehouseID, ReorderPoint: dec("20"), ReorderQty: dec("100")},
		{SKU: "CAF-GR", Name: "Café molido a granel", TaxRate: dec("5"), PricePerGram: &pricePerGram,
			UnitMeasure: "GRM", InitialStock: dec("5000"), WarehouseID: cfg.Sales.WarehouseID},
		{SKU: "GAS-15", Name: "Gaseosa 1.5 L", Price: dec("4200"), TaxRate: dec("19"), InitialStock: dec("48"),
			WarehouseID: cfg.Sales.WarehouseID, ReorderPoint: dec("12"), ReorderQty: dec("48")},
		{SKU: "CAM-BAS", Name: "Camiseta básica", Price: dec("25000"), TaxRate: dec("19"), WarehouseID: cfg.Sales.WarehouseID,
			Variants: []dto.CreateVariantRequest{
				{SKU: "CAM-BAS-S", Name: "Talla S", InitialStock: dec("10")},
				{SKU: "CAM-BAS-L", Name: "Talla L", PriceDelta: dec("2000"), InitialStock: dec("6")},
			}},
	}
	created := make(map[string]*catalog.ProductWithVariants, len(products))
	for _, p := range products {
		pv, err := productUC.Create(ctx, p)
		if errors.Is(err, domain.ErrDuplicate) {
			log.Info().Str("sku", p.SKU).Msg("catálogo ya sembrado, nada que hacer")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Str("sku", p.SKU).Msg("crear producto")
		}
		created[p.SKU] = pv
	}
	log.Info().Int("products", len(created)).Msg("catálogo sembrado")

	if _, err := customerUC.Create(ctx, dto.CreateCustomerRequest{Name: "Consumidor de mostrador"}); err != nil {
		log.Fatal().Err(err).Msg("crear cliente")
	}
	fiado, err := customerUC.Create(ctx, dto.CreateCustomerRequest{
		Name: "Doña Marta", Phone: "3001234567", CreditEnabled: true, CreditLimit: dec("200000"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear cliente con fiado")
	}

	items := []dto.SaleItemRequest{
		{ProductID: created["ARZ-500"].Product.ID, Quantity: dec("4")},
		{ProductID: created["CAF-GR"].Product.ID, Quantity: dec("250")},
		{ProductID: created["CAM-BAS"].Product.ID, VariantID: created["CAM-BAS"].Variants[1].ID, Quantity: dec("1")},
	}
	total, err := quote(created, items)
	if err != nil {
		log.Fatal().Err(err).Msg("liquidar carrito")
	}
	cash := dec("10000")
	sale, err := saleUC.CreateSale(ctx, dto.CreateSaleRequest{
		CustomerID:  fiado.ID,
		WarehouseID: cfg.Sales.WarehouseID,
		Items:       items,
		Payments: []dto.SalePaymentRequest{
			{Method: "CASH", Amount: cash, ReceivedAmount: &cash},
			{Method: "CREDIT", Amount: total.Sub(cash)},
		},
		Notes:  "venta de demostración",
		UserID: "seed",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("registrar venta a fiado")
	}
	log.Info().Str("sale_id", sale.ID).Str("total", money.Format(sale.Total)).
		Str("credit", money.Format(sale.CreditAmount)).Msg("venta sembrada")

	if _, err := settlementUC.RecordPayment(ctx, dto.RecordPaymentRequest{
		CustomerID: fiado.ID, Amount: dec("5000"), Method: "NEQUI", Notes: "abono de demostración", UserID: "seed",
	}); err != nil {
		log.Fatal().Err(err).Msg("registrar abono")
	}

	summary, err := summaryUC.GetCustomerCreditSummary(ctx, fiado.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("consultar cupo")
	}
	log.Info().
		Str("customer_id", fiado.ID).
		Str("limit", money.Format(summary.CreditLimit)).
		Str("used", money.Format(summary.CreditUsed)).
		Str("available", money.Format(summary.CreditAvailable)).
		Msg("semilla completada")
}

// quote liquida el carrito con los precios de lista para repartir el pago entre efectivo y fiado.
func quote(created map[string]*catalog.ProductWithVariants, items []dto.SaleItemRequest) (decimal.Decimal, error) {
	byID := make(map[string]*catalog.ProductWithVariants, len(created))
	for _, pv := range created {
		byID[pv.Product.ID] = pv
	}
	lines := make([]pricing.LineInput, len(items))
	for i, it := range items {
		pv := byID[it.ProductID]
		var variant *entity.Variant
		for _, v := range pv.Variants {
			if v.ID == it.VariantID {
				variant = v
			}
		}
		lines[i] = pricing.LineInput{
			Quantity:  it.Quantity,
			UnitPrice: pv.Product.UnitPrice(variant),
			TaxRate:   pv.Product.TaxRate,
		}
	}
	priced, err := pricing.PriceItems(lines, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return priced.Total, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Un *T nil dentro de una interfaz no es una interfaz nil: se convierte explícitamente.
func optionalSummaryCache(c *cache.CreditSummaryCache) credit.SummaryCache {
	if c == nil {
		return nil
	}
	return c
}

func optionalSaleCache(c *cache.CreditSummaryCache) sales.CreditCache {
	if c == nil {
		return nil
	}
	return c
}

func optionalPublisher(p *jobs.Publisher) credit.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
