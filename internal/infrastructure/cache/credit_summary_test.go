package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/cache"
)

func newCache(t *testing.T, ttl time.Duration) (*cache.CreditSummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCreditSummaryCache(client, ttl), mr
}

func summary() entity.CreditSummary {
	return entity.CreditSummary{
		CustomerID:      "c1",
		CreditEnabled:   true,
		CreditLimit:     decimal.RequireFromString("50000"),
		CreditUsed:      decimal.RequireFromString("35000.50"),
		CreditAvailable: decimal.RequireFromString("14999.50"),
		OverdueAmount:   decimal.RequireFromString("5000"),
		OpenSales:       2,
		ComputedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func mustSet(t *testing.T, c *cache.CreditSummaryCache, s entity.CreditSummary) {
	t.Helper()
	gen, err := c.Generation(context.Background(), s.CustomerID)
	require.NoError(t, err)
	stored, err := c.Set(context.Background(), s, gen)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestCreditSummaryCache_GuardarYLeer(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Minute)

	got, ok, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	stored, err := c.Set(ctx, summary(), 0)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("credit:summary:c1"))
	assert.Equal(t, time.Minute, mr.TTL("credit:summary:c1"))

	got, ok, err = c.Get(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	want := summary()
	assert.Equal(t, want.CustomerID, got.CustomerID)
	assert.True(t, want.CreditUsed.Equal(got.CreditUsed))
	assert.True(t, want.CreditAvailable.Equal(got.CreditAvailable))
	assert.True(t, want.OverdueAmount.Equal(got.OverdueAmount))
	assert.Equal(t, 2, got.OpenSales)
	assert.True(t, want.ComputedAt.Equal(got.ComputedAt))
}

func TestCreditSummaryCache_Expira(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Minute)
	mustSet(t, c, summary())

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditSummaryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, 0)
	mustSet(t, c, summary())
	assert.Equal(t, time.Duration(0), mr.TTL("credit:summary:c1"))

	require.NoError(t, c.Invalidate(ctx, "c1"))
	assert.False(t, mr.Exists("credit:summary:c1"))
	// clave ausente
	require.NoError(t, c.Invalidate(ctx, "c1"))

	gen, err := c.Generation(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen)
}

// Un cálculo que leyó la generación antes de un abono no repone el cupo viejo.
func TestCreditSummaryCache_SetDescartadoTrasInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Minute)

	gen, err := c.Generation(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, gen)

	require.NoError(t, c.Invalidate(ctx, "c1"))

	stored, err := c.Set(ctx, summary(), gen)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("credit:summary:c1"))
	_, ok, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	// con la generación vigente sí se guarda
	stored, err = c.Set(ctx, summary(), gen+1)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("credit:summary:c1"))
}

func TestCreditSummaryCache_EntradaCorruptaEsAusente(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Minute)
	require.NoError(t, mr.Set("credit:summary:c1", "{no-json"))

	_, ok, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("credit:summary:c1"))
}

func TestCreditSummaryCache_RedisCaido(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(ctx, "c1")
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx, "c1"))
	_, err = c.Generation(ctx, "c1")
	assert.Error(t, err)
	_, err = c.Set(ctx, summary(), 0)
	assert.Error(t, err)
}
