package credit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

func newSettlement(st *memory.Store, cache credit.SummaryCache, pub credit.EventPublisher) *credit.SettlementUseCase {
	return credit.NewSettlementUseCase(st, cache, pub, fixedClock(), credit.DefaultConfig(), nil)
}

func TestRecordPayment_FIFO(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	// se crean en desorden: manda la fecha de venta
	seedCredit(t, st, "feb", "c1", day("2024-02-01"), "30", nil)
	seedCredit(t, st, "ene", "c1", day("2024-01-01"), "50", nil)
	cache, pub := newFakeCache(), &spyPublisher{}
	uc := newSettlement(st, cache, pub)

	payments, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{
		CustomerID: "c1", Amount: d("60"), Method: "CASH", Notes: "abono quincena", UserID: "cajero",
	})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "cs-ene", payments[0].CreditSaleID)
	assert.Equal(t, "50", payments[0].Amount.String())
	assert.Equal(t, "cs-feb", payments[1].CreditSaleID)
	assert.Equal(t, "10", payments[1].Amount.String())
	assert.Equal(t, entity.PaymentCash, payments[0].Method)
	assert.Equal(t, "abono quincena", payments[1].Notes)

	ene, feb := creditOf(t, st, "ene"), creditOf(t, st, "feb")
	assert.Equal(t, entity.CreditPaid, ene.Status)
	assert.True(t, ene.RemainingBalance.IsZero())
	assert.Equal(t, entity.CreditPending, feb.Status)
	assert.Equal(t, "20", feb.RemainingBalance.String())
	assert.Equal(t, "10", feb.PaidAmount.String())

	assert.Equal(t, []string{"c1"}, cache.invalidated)
	assert.Equal(t, []string{"c1"}, pub.ids)
}

func TestRecordPayment_SobrepagoRechazado(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "50", nil)
	seedCredit(t, st, "b", "c1", day("2024-01-02"), "30", nil)
	pub := &spyPublisher{}
	uc := newSettlement(st, nil, pub)

	_, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("100"), Method: "CASH"})
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)
	var oe *domain.OverpaymentError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "80", oe.Outstanding.String())

	for _, id := range []string{"cs-a", "cs-b"} {
		list, err := st.Repos().CreditPayments.ListByCreditSale(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, list)
	}
	assert.Equal(t, "50", creditOf(t, st, "a").RemainingBalance.String())
	assert.Empty(t, pub.ids)
}

func TestRecordPayment_ExcesoDentroDeTolerancia(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "80", nil)
	uc := newSettlement(st, nil, nil)

	payments, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("80.01"), Method: "NEQUI"})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "80", payments[0].Amount.String(), "se recorta al pendiente")
	assert.Equal(t, entity.CreditPaid, creditOf(t, st, "a").Status)

	_, err = uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("1"), Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrNoOutstandingDebt)
}

func TestRecordPayment_EntradaInvalida(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "80", nil)
	uc := newSettlement(st, nil, nil)
	ctx := context.Background()

	for _, amount := range []string{"0", "-5", "10.005"} {
		_, err := uc.RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: "c1", Amount: d(amount), Method: "CASH"})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, amount)
	}
	_, err := uc.RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("10"), Method: "CREDIT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: "nadie", Amount: d("10"), Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestRecordPayment_AbonosConcurrentesNoExcedenDeuda(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "100", nil)
	uc := newSettlement(st, nil, nil)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("25"), Method: "CASH"})
			if err != nil && !assert.ErrorIs(t, err, domain.ErrNoOutstandingDebt) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	c := creditOf(t, st, "a")
	assert.Equal(t, entity.CreditPaid, c.Status)
	assert.Equal(t, "100", c.PaidAmount.String())
	list, err := st.Repos().CreditPayments.ListByCreditSale(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestMarkOverdue(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	past, future := day("2024-02-15"), day("2024-04-01")
	seedCredit(t, st, "vencido", "c1", day("2024-01-15"), "40", &past)
	seedCredit(t, st, "vigente", "c1", day("2024-02-20"), "10", &future)
	seedCredit(t, st, "sinfecha", "c1", day("2024-01-01"), "5", nil)
	cache := newFakeCache()
	uc := newSettlement(st, cache, nil)

	n, err := uc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, entity.CreditOverdue, creditOf(t, st, "vencido").Status)
	assert.Equal(t, entity.CreditPending, creditOf(t, st, "vigente").Status)
	assert.Equal(t, []string{"c1"}, cache.invalidated)

	// idempotente
	n, err = uc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// una cuenta vencida sigue cobrándose en FIFO
	payments, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("45"), Method: "CASH"})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "cs-sinfecha", payments[0].CreditSaleID)
	assert.Equal(t, "cs-vencido", payments[1].CreditSaleID)
	assert.Equal(t, entity.CreditPaid, creditOf(t, st, "vencido").Status)
}

func TestListCreditSales_EstadoEfectivo(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	past := day("2024-02-01")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "50", &past)
	uc := newSettlement(st, nil, nil)

	_, err := uc.RecordPayment(context.Background(), dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("20"), Method: "CARD"})
	require.NoError(t, err)

	lines, err := uc.ListCreditSales(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, entity.CreditPending, lines[0].Credit.Status)
	assert.Equal(t, entity.CreditOverdue, lines[0].EffectiveStatus)
	assert.Len(t, lines[0].Payments, 1)

	_, err = uc.ListCreditSales(context.Background(), "nadie")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
