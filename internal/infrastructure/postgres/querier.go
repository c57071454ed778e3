package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// Querier lo que comparten *pgxpool.Pool y pgx.Tx; los repositorios funcionan con cualquiera de los dos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repos repositorios atados a q (pool para lecturas sueltas, tx dentro de Run).
func Repos(q Querier) repository.Repos {
	return repository.Repos{
		Products:       NewProductRepository(q),
		Stock:          NewStockRepository(q),
		Movements:      NewInventoryMovementRepository(q),
		Customers:      NewCustomerRepository(q),
		Sales:          NewSaleRepository(q),
		Credits:        NewCreditSaleRepository(q),
		CreditPayments: NewCreditPaymentRepository(q),
	}
}
