package credit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() domain.FixedClock { return domain.FixedClock{T: now} }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeCache cache en memoria que cuenta operaciones.
type fakeCache struct {
	mu          sync.Mutex
	data        map[string]entity.CreditSummary
	generations map[string]int64
	gets, sets  int
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]entity.CreditSummary{}, generations: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, id string) (*entity.CreditSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	s, ok := c.data[id]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *fakeCache) Generation(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id], nil
}

func (c *fakeCache) Set(_ context.Context, s entity.CreditSummary, gen int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[s.CustomerID] != gen {
		return false, nil
	}
	c.sets++
	c.data[s.CustomerID] = s
	return true, nil
}

func (c *fakeCache) cached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[id]
	return ok
}

func (c *fakeCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	c.generations[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

// spyPublisher registra los refrescos encolados.
type spyPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *spyPublisher) PublishSummaryRefresh(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
	return nil
}

func seedCustomer(t *testing.T, st *memory.Store, id, limit string) {
	t.Helper()
	require.NoError(t, st.Repos().Customers.Create(context.Background(), &entity.Customer{
		ID: id, Name: id, CreditEnabled: true, CreditLimit: d(limit), CreatedAt: now, UpdatedAt: now,
	}))
}

// seedCredit cuenta abierta sin abonos.
func seedCredit(t *testing.T, st *memory.Store, id, customerID string, saleDate time.Time, amount string, due *time.Time) {
	t.Helper()
	require.NoError(t, st.Repos().Credits.Create(context.Background(), &entity.CreditSale{
		ID: "cs-" + id, SaleID: "sale-" + id, CustomerID: customerID,
		TotalAmount: d(amount), PaidAmount: decimal.Zero, RemainingBalance: d(amount),
		Status: entity.CreditPending, SaleDate: saleDate, DueDate: due, CreatedAt: saleDate, UpdatedAt: saleDate,
	}))
}

func creditOf(t *testing.T, st *memory.Store, id string) *entity.CreditSale {
	t.Helper()
	c, err := st.Repos().Credits.GetBySaleID(context.Background(), "sale-"+id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}
