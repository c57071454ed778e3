package credit_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

func newSummary(st *memory.Store, cache credit.SummaryCache) *credit.SummaryUseCase {
	repos := st.Repos()
	return credit.NewSummaryUseCase(repos.Customers, repos.Credits, cache, fixedClock(), nil)
}

func TestSummary_CupoDisponible(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "50000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "30000", nil)
	past := day("2024-02-01")
	seedCredit(t, st, "b", "c1", day("2024-01-05"), "5000", &past)

	s, err := newSummary(st, nil).GetCustomerCreditSummary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "35000", s.CreditUsed.String())
	assert.Equal(t, "15000", s.CreditAvailable.String())
	assert.Equal(t, "5000", s.OverdueAmount.String())
	assert.Equal(t, 2, s.OpenSales)
	assert.True(t, s.CreditEnabled)

	_, err = newSummary(st, nil).GetCustomerCreditSummary(context.Background(), "nadie")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestSummary_UsaCacheYSeInvalidaConAbono(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "400", nil)
	cache := newFakeCache()
	summary := newSummary(st, cache)
	ctx := context.Background()

	s, err := summary.GetCustomerCreditSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "600", s.CreditAvailable.String())
	assert.Equal(t, 1, cache.sets)

	_, err = summary.GetCustomerCreditSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "la segunda lectura sale de cache")

	_, err = newSettlement(st, cache, nil).RecordPayment(ctx, dto.RecordPaymentRequest{CustomerID: "c1", Amount: d("100"), Method: "CASH"})
	require.NoError(t, err)

	s, err = summary.GetCustomerCreditSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "700", s.CreditAvailable.String())
	assert.Equal(t, 2, cache.sets)
}

func TestSummary_CacheCaidaNoEsFatal(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	cache := newFakeCache()
	cache.getErr = errors.New("redis caído")

	s, err := newSummary(st, cache).GetCustomerCreditSummary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "1000", s.CreditAvailable.String())
}

func TestSummary_Refresh(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "250", nil)
	cache := newFakeCache()

	s, err := newSummary(st, cache).Refresh(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "250", s.CreditUsed.String())
	assert.Equal(t, now, s.ComputedAt)

	cached, ok, err := cache.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "750", cached.CreditAvailable.String())
}

// blockingCustomers detiene la lectura del cliente hasta release y respeta la cancelación del ctx.
type blockingCustomers struct {
	repository.CustomerRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingCustomers) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.CustomerRepository.GetByID(ctx, id)
}

func TestSummary_CancelarPrimerLlamadorNoArruinaElCalculoCompartido(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "300", nil)
	repos := st.Repos()
	customers := &blockingCustomers{CustomerRepository: repos.Customers, entered: make(chan struct{}), release: make(chan struct{})}
	cache := newFakeCache()
	summary := credit.NewSummaryUseCase(customers, repos.Credits, cache, fixedClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := summary.GetCustomerCreditSummary(ctx, "c1")
		first <- err
	}()
	<-customers.entered
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	// un segundo cliente se une al mismo cálculo y recibe el cupo
	second := make(chan error, 1)
	var got entity.CreditSummary
	go func() {
		var err error
		got, err = summary.GetCustomerCreditSummary(context.Background(), "c1")
		second <- err
	}()
	close(customers.release)
	require.NoError(t, <-second)
	assert.Equal(t, "700", got.CreditAvailable.String())
	assert.True(t, cache.cached("c1"))
}

// invalidatingCredits simula un abono confirmado e invalidado mientras se leen las cuentas.
type invalidatingCredits struct {
	repository.CreditSaleRepository
	cache *fakeCache
}

func (r invalidatingCredits) ListByCustomer(ctx context.Context, customerID string) ([]*entity.CreditSale, error) {
	list, err := r.CreditSaleRepository.ListByCustomer(ctx, customerID)
	_ = r.cache.Invalidate(ctx, customerID)
	return list, err
}

func TestSummary_RefreshNoGuardaCupoInvalidadoDuranteElCalculo(t *testing.T) {
	st := memory.New()
	seedCustomer(t, st, "c1", "1000")
	seedCredit(t, st, "a", "c1", day("2024-01-01"), "400", nil)
	repos := st.Repos()
	cache := newFakeCache()
	summary := credit.NewSummaryUseCase(repos.Customers, invalidatingCredits{CreditSaleRepository: repos.Credits, cache: cache}, cache, fixedClock(), nil)

	s, err := summary.Refresh(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "600", s.CreditAvailable.String())
	assert.False(t, cache.cached("c1"), "el cupo leído antes de la invalidación no se guarda")
	assert.Equal(t, 0, cache.sets)

	// el siguiente cálculo, sin invalidaciones de por medio, sí se guarda
	_, err = newSummary(st, cache).Refresh(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, cache.cached("c1"))
}
