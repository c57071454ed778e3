package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/pricing"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// SaleUseCase motor de registro y anulación de ventas. Cada operación corre completa
// dentro de una transacción: o se confirma todo o no queda nada.
type SaleUseCase struct {
	txRunner TxRunner
	ledger   *inventory.Ledger
	cache    CreditCache
	clock    domain.Clock
	cfg      Config
	log      *logger.Logger
}

// NewSaleUseCase construye el caso de uso. cache, clock y log pueden ser nil.
func NewSaleUseCase(txRunner TxRunner, ledger *inventory.Ledger, cache CreditCache, clock domain.Clock, cfg Config, log *logger.Logger) *SaleUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.PaymentTolerance.IsNegative() {
		cfg.PaymentTolerance = decimal.Zero
	}
	return &SaleUseCase{txRunner: txRunner, ledger: ledger, cache: cache, clock: clock, cfg: cfg, log: log.Component("sales")}
}

// saleLine línea resuelta contra el catálogo.
type saleLine struct {
	index   int
	product *entity.Product
	variant *entity.Variant
	key     entity.StockKey
	input   pricing.LineInput
}

// saleDraft estado de trabajo de una venta en curso.
type saleDraft struct {
	req       dto.CreateSaleRequest
	id        string
	now       time.Time
	customer  *entity.Customer
	hasCredit bool
	payments  []PaymentInput
	lines     []saleLine
	priced    pricing.PricedSale
	split     PaymentSplit
}

// CreateSale registra una venta: valida, liquida, verifica stock, cuadra pagos, verifica cupo
// y confirma venta, líneas, pagos, movimientos SALE y, si hay porción fiada, la CreditSale.
func (uc *SaleUseCase) CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*entity.Sale, error) {
	if err := dto.Validate(req); err != nil {
		return nil, newSaleRun(uc.log).abort(err)
	}
	if req.WarehouseID == "" {
		req.WarehouseID = uc.cfg.WarehouseID
	}

	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		run := newSaleRun(uc.log)
		d := &saleDraft{req: req, id: uuid.New().String(), now: uc.clock.Now()}

		if err := run.step(func() error {
			if err := uc.validate(ctx, tx, d); err != nil {
				return err
			}
			return uc.price(d)
		}); err != nil {
			return err
		}
		if err := run.step(func() error { return uc.checkStock(ctx, tx, d) }); err != nil {
			return err
		}
		if err := run.step(func() error { return uc.splitPayments(d) }); err != nil {
			return err
		}
		return run.step(func() error {
			if err := uc.checkCreditCapacity(ctx, tx, d); err != nil {
				return err
			}
			s, err := uc.commit(ctx, tx, d)
			if err != nil {
				return err
			}
			sale = s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if sale.CreditAmount.IsPositive() {
		uc.invalidate(ctx, sale.CustomerID)
	}
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("type", string(sale.Type)).
		Str("total", sale.Total.StringFixed(2)).
		Str("credit", sale.CreditAmount.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("venta registrada")
	return sale, nil
}

// validate: pagos, cliente (obligatorio y con crédito habilitado si hay pago CREDIT) y catálogo.
func (uc *SaleUseCase) validate(ctx context.Context, tx repository.Repos, d *saleDraft) error {
	d.payments = make([]PaymentInput, len(d.req.Payments))
	for i, p := range d.req.Payments {
		method := entity.PaymentMethod(p.Method)
		if method == entity.PaymentCredit {
			d.hasCredit = true
		}
		d.payments[i] = PaymentInput{Method: method, Amount: p.Amount, ReceivedAmount: p.ReceivedAmount, Reference: p.Reference}
	}

	if d.hasCredit && d.req.CustomerID == "" {
		return fmt.Errorf("%w: la venta a crédito requiere cliente", domain.ErrInvalidInput)
	}
	if d.req.CustomerID != "" {
		var (
			customer *entity.Customer
			err      error
		)
		if d.hasCredit {
			// Bloquea al cliente: serializa con abonos y otras ventas a fiado del mismo cliente
			customer, err = tx.Customers.GetForUpdate(ctx, d.req.CustomerID)
		} else {
			customer, err = tx.Customers.GetByID(ctx, d.req.CustomerID)
		}
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}
		if d.hasCredit && !customer.CreditEnabled {
			return domain.ErrCreditNotEnabled
		}
		d.customer = customer
	}
	if d.req.CreditDueDate != nil && !d.req.CreditDueDate.After(d.now) {
		return fmt.Errorf("%w: la fecha de vencimiento del fiado debe ser futura", domain.ErrInvalidInput)
	}

	d.lines = make([]saleLine, 0, len(d.req.Items))
	for i, it := range d.req.Items {
		product, variant, err := inventory.ResolveProduct(ctx, tx.Products, it.ProductID, it.VariantID)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return domain.NewLineError(i, err.Error())
			}
			return fmt.Errorf("línea %d: %w", i+1, err)
		}
		if !product.Active || (variant != nil && !variant.Active) {
			return domain.NewLineError(i, fmt.Sprintf("el producto %s está inactivo", product.SKU))
		}
		unitPrice := product.UnitPrice(variant)
		if it.UnitPrice != nil {
			unitPrice = *it.UnitPrice
		}
		d.lines = append(d.lines, saleLine{
			index:   i,
			product: product,
			variant: variant,
			key:     entity.StockKey{ProductID: it.ProductID, VariantID: it.VariantID, WarehouseID: d.req.WarehouseID},
			input: pricing.LineInput{
				Quantity:        it.Quantity,
				UnitPrice:       unitPrice,
				DiscountPercent: it.DiscountPercent,
				DiscountAmount:  it.DiscountAmount,
				TaxRate:         product.TaxRate,
			},
		})
	}
	return nil
}

func (uc *SaleUseCase) price(d *saleDraft) error {
	inputs := make([]pricing.LineInput, len(d.lines))
	for i, l := range d.lines {
		inputs[i] = l.input
	}
	var discount *pricing.SaleDiscount
	if d.req.Discount != nil {
		discount = &pricing.SaleDiscount{Percent: d.req.Discount.Percent, Amount: d.req.Discount.Amount}
	}
	priced, err := pricing.PriceItems(inputs, discount)
	if err != nil {
		return err
	}
	d.priced = priced
	return nil
}

// checkStock bloquea las filas en orden de clave y verifica el acumulado por clave en orden de línea,
// para nombrar la primera línea que no alcanza. No aplica movimientos.
func (uc *SaleUseCase) checkStock(ctx context.Context, tx repository.Repos, d *saleDraft) error {
	need := make(map[entity.StockKey]decimal.Decimal)
	for _, l := range d.lines {
		need[l.key] = need[l.key].Add(l.input.Quantity)
	}
	keys := make([]entity.StockKey, 0, len(need))
	for k := range need {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	available := make(map[entity.StockKey]decimal.Decimal, len(keys))
	for _, k := range keys {
		a, err := uc.ledger.CheckAvailability(ctx, tx.Stock, k, need[k])
		if err != nil {
			return err
		}
		available[k] = a.Available
	}

	running := make(map[entity.StockKey]decimal.Decimal, len(keys))
	for _, l := range d.lines {
		running[l.key] = running[l.key].Add(l.input.Quantity)
		if running[l.key].GreaterThan(available[l.key]) {
			return &domain.StockError{
				LineIndex: l.index,
				ProductID: l.key.ProductID,
				VariantID: l.key.VariantID,
				Requested: running[l.key],
				Available: available[l.key],
			}
		}
	}
	return nil
}

func (uc *SaleUseCase) splitPayments(d *saleDraft) error {
	split, err := SplitPayments(d.priced.Total, d.payments, uc.cfg.PaymentTolerance)
	if err != nil {
		return err
	}
	if !split.Residual.IsZero() {
		uc.log.Warn().
			Str("sale_id", d.id).
			Str("residual", split.Residual.String()).
			Str("method", string(split.Payments[split.AbsorbedBy].Method)).
			Msg("residuo de redondeo absorbido en el pago")
	}
	d.split = split
	return nil
}

// checkCreditCapacity recalcula el cupo desde las cuentas abiertas (bloqueadas) del cliente.
func (uc *SaleUseCase) checkCreditCapacity(ctx context.Context, tx repository.Repos, d *saleDraft) error {
	if !d.split.CreditAmount.IsPositive() {
		return nil
	}
	open, err := tx.Credits.ListOpenForUpdate(ctx, d.customer.ID)
	if err != nil {
		return err
	}
	summary := entity.NewCreditSummary(d.customer, derefCredits(open), d.now)
	if d.split.CreditAmount.GreaterThan(summary.CreditAvailable) {
		return &domain.CreditLimitError{
			CustomerID: d.customer.ID,
			Requested:  d.split.CreditAmount,
			Available:  summary.CreditAvailable,
		}
	}
	return nil
}

func (uc *SaleUseCase) commit(ctx context.Context, tx repository.Repos, d *saleDraft) (*entity.Sale, error) {
	sale := &entity.Sale{
		ID:             d.id,
		Type:           entity.SaleTypeRegular,
		Status:         entity.SaleStatusCompleted,
		WarehouseID:    d.req.WarehouseID,
		Subtotal:       d.priced.Subtotal,
		DiscountAmount: d.priced.DiscountAmount,
		TaxAmount:      d.priced.TaxAmount,
		Total:          d.priced.Total,
		PaidAmount:     d.split.PaidAmount,
		ChangeAmount:   d.split.ChangeAmount,
		CreditAmount:   d.split.CreditAmount,
		Notes:          d.req.Notes,
		CreatedBy:      d.req.UserID,
		CreatedAt:      d.now,
		UpdatedAt:      d.now,
	}
	if d.customer != nil {
		sale.CustomerID = d.customer.ID
	}
	if sale.CreditAmount.IsPositive() {
		sale.Type = entity.SaleTypeCredit
		due := d.now.AddDate(0, 0, uc.cfg.DefaultTermDays)
		if d.req.CreditDueDate != nil {
			due = d.req.CreditDueDate.UTC()
		}
		sale.CreditDueDate = &due
	}

	sale.Items = make([]entity.SaleItem, len(d.lines))
	for i, l := range d.lines {
		pl := d.priced.Lines[i]
		sale.Items[i] = entity.SaleItem{
			ID:              uuid.New().String(),
			SaleID:          sale.ID,
			ProductID:       l.key.ProductID,
			VariantID:       l.key.VariantID,
			Quantity:        l.input.Quantity,
			UnitPrice:       l.input.UnitPrice,
			DiscountPercent: l.input.DiscountPercent,
			DiscountAmount:  pl.Discount,
			TaxRate:         l.input.TaxRate,
			Subtotal:        pl.Subtotal,
			TaxAmount:       pl.Tax,
			Total:           pl.Total,
		}
	}
	sale.Payments = make([]entity.SalePayment, len(d.split.Payments))
	for i, p := range d.split.Payments {
		p.ID = uuid.New().String()
		p.SaleID = sale.ID
		p.CreatedAt = d.now
		sale.Payments[i] = p
	}

	if err := tx.Sales.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("guardar venta: %w", err)
	}

	// Movimientos SALE en orden de clave (mismo orden de bloqueo que checkStock)
	order := make([]saleLine, len(d.lines))
	copy(order, d.lines)
	sort.SliceStable(order, func(i, j int) bool { return order[i].key.Less(order[j].key) })
	for _, l := range order {
		_, err := uc.ledger.ApplyMovement(ctx, tx.Movements, tx.Stock, inventory.MovementInput{
			Key:       l.key,
			Type:      entity.MovementSale,
			Delta:     l.input.Quantity.Neg(),
			UnitCost:  l.product.Cost,
			Reference: sale.ID,
			Reason:    "Venta",
			CreatedBy: d.req.UserID,
		})
		if err != nil {
			var se *domain.StockError
			if errors.As(err, &se) {
				se.LineIndex = l.index
			}
			return nil, err
		}
	}

	if sale.CreditAmount.IsPositive() {
		// UUIDv7 ordena por creación: desempata el FIFO cuando SaleDate y CreatedAt coinciden
		creditID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("id de fiado: %w", err)
		}
		credit := &entity.CreditSale{
			ID:               creditID.String(),
			SaleID:           sale.ID,
			CustomerID:       sale.CustomerID,
			TotalAmount:      sale.CreditAmount,
			PaidAmount:       decimal.Zero,
			RemainingBalance: sale.CreditAmount,
			Status:           entity.CreditPending,
			SaleDate:         d.now,
			DueDate:          sale.CreditDueDate,
			CreatedAt:        d.now,
			UpdatedAt:        d.now,
		}
		if err := tx.Credits.Create(ctx, credit); err != nil {
			return nil, fmt.Errorf("guardar fiado: %w", err)
		}
	}
	return sale, nil
}

func (uc *SaleUseCase) invalidate(ctx context.Context, customerID string) {
	if customerID == "" {
		return
	}
	if err := uc.cache.Invalidate(ctx, customerID); err != nil {
		uc.log.Warn().Err(err).Str("customer_id", customerID).Msg("no se pudo invalidar el cupo cacheado")
	}
}

func derefCredits(list []*entity.CreditSale) []entity.CreditSale {
	out := make([]entity.CreditSale, len(list))
	for i, c := range list {
		out[i] = *c
	}
	return out
}

// GetSale devuelve una venta por ID.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		s, err := tx.Sales.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSaleNotFound
		}
		sale = s
		return nil
	})
	return sale, err
}
