package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

var (
	_ credit.SummaryCache = (*CreditSummaryCache)(nil)
	_ sales.CreditCache   = (*CreditSummaryCache)(nil)
)

const (
	summaryKeyPrefix    = "credit:summary:"
	generationKeyPrefix = "credit:summary_gen:"

	// generationTTL si el contador expira vuelve a 0 y un Set pendiente con otra generación se descarta.
	generationTTL = 24 * time.Hour
)

// CreditSummaryCache cupo de crédito por cliente en Redis. Es una vista derivada:
// ante cualquier duda se invalida y se recalcula desde las cuentas. Cada Invalidate sube
// la generación del cliente y Set solo escribe si la generación no cambió desde que se leyó,
// así un cálculo que empezó antes de un abono no puede reponer un cupo viejo.
type CreditSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCreditSummaryCache ttl <= 0 deja las entradas sin expiración.
func NewCreditSummaryCache(client *redis.Client, ttl time.Duration) *CreditSummaryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &CreditSummaryCache{client: client, ttl: ttl}
}

type summaryJSON struct {
	CustomerID      string          `json:"customer_id"`
	CreditEnabled   bool            `json:"credit_enabled"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	CreditAvailable decimal.Decimal `json:"credit_available"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	OpenSales       int             `json:"open_sales"`
	ComputedAt      time.Time       `json:"computed_at"`
}

func summaryKey(customerID string) string {
	return summaryKeyPrefix + customerID
}

func generationKey(customerID string) string {
	return generationKeyPrefix + customerID
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter, customerID string) (int64, error) {
	gen, err := cmd.Get(ctx, generationKey(customerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Generation versión de invalidación del cliente; 0 si nunca se invalidó.
func (c *CreditSummaryCache) Generation(ctx context.Context, customerID string) (int64, error) {
	gen, err := readGeneration(ctx, c.client, customerID)
	if err != nil {
		return 0, fmt.Errorf("cache generation %s: %w", customerID, err)
	}
	return gen, nil
}

// Get devuelve (nil, false, nil) si no hay entrada.
func (c *CreditSummaryCache) Get(ctx context.Context, customerID string) (*entity.CreditSummary, bool, error) {
	raw, err := c.client.Get(ctx, summaryKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", customerID, err)
	}
	var s summaryJSON
	if err := json.Unmarshal(raw, &s); err != nil {
		// entrada corrupta: se trata como ausente y se descarta
		_ = c.client.Del(ctx, summaryKey(customerID)).Err()
		return nil, false, nil
	}
	return &entity.CreditSummary{
		CustomerID:      s.CustomerID,
		CreditEnabled:   s.CreditEnabled,
		CreditLimit:     s.CreditLimit,
		CreditUsed:      s.CreditUsed,
		CreditAvailable: s.CreditAvailable,
		OverdueAmount:   s.OverdueAmount,
		OpenSales:       s.OpenSales,
		ComputedAt:      s.ComputedAt,
	}, true, nil
}

// Set guarda el cupo con el TTL configurado si la generación sigue siendo gen.
// Devuelve false cuando hubo una invalidación de por medio y la entrada se descartó.
func (c *CreditSummaryCache) Set(ctx context.Context, s entity.CreditSummary, gen int64) (bool, error) {
	raw, err := json.Marshal(summaryJSON{
		CustomerID:      s.CustomerID,
		CreditEnabled:   s.CreditEnabled,
		CreditLimit:     s.CreditLimit,
		CreditUsed:      s.CreditUsed,
		CreditAvailable: s.CreditAvailable,
		OverdueAmount:   s.OverdueAmount,
		OpenSales:       s.OpenSales,
		ComputedAt:      s.ComputedAt,
	})
	if err != nil {
		return false, err
	}
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, s.CustomerID)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey(s.CustomerID), raw, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, generationKey(s.CustomerID))
	if errors.Is(err, redis.TxFailedErr) {
		// la generación cambió entre WATCH y EXEC
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache set %s: %w", s.CustomerID, err)
	}
	return stored, nil
}

// Invalidate borra la entrada del cliente y sube su generación; borrar una clave ausente no es error.
func (c *CreditSummaryCache) Invalidate(ctx context.Context, customerID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(customerID))
		pipe.Expire(ctx, generationKey(customerID), generationTTL)
		pipe.Del(ctx, summaryKey(customerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate %s: %w", customerID, err)
	}
	return nil
}
