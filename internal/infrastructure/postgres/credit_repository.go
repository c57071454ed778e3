package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.CreditSaleRepository    = (*CreditSaleRepo)(nil)
	_ repository.CreditPaymentRepository = (*CreditPaymentRepo)(nil)
)

const creditColumns = `id, sale_id, customer_id, total_amount, paid_amount, remaining_balance, status, sale_date, due_date, created_at, updated_at`

// fifoOrder orden de cobro de las cuentas de un cliente; el id es UUIDv7 y desempata por creación.
const fifoOrder = ` ORDER BY sale_date, created_at, id`

// CreditSaleRepo cuentas por cobrar del fiado.
type CreditSaleRepo struct {
	q Querier
}

// NewCreditSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditSaleRepository(q Querier) *CreditSaleRepo {
	return &CreditSaleRepo{q: q}
}

func scanCredit(row pgx.Row) (*entity.CreditSale, error) {
	var (
		c      entity.CreditSale
		status string
	)
	err := row.Scan(&c.ID, &c.SaleID, &c.CustomerID, &c.TotalAmount, &c.PaidAmount, &c.RemainingBalance,
		&status, &c.SaleDate, &c.DueDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = entity.CreditStatus(status)
	return &c, nil
}

// Create persiste la cuenta generada por una venta (a lo sumo una por venta).
func (r *CreditSaleRepo) Create(ctx context.Context, c *entity.CreditSale) error {
	_, err := r.q.Exec(ctx, `INSERT INTO credit_sales (`+creditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.SaleID, c.CustomerID, c.TotalAmount, c.PaidAmount, c.RemainingBalance, string(c.Status),
		c.SaleDate, c.DueDate, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fiado de la venta %s: %w", c.SaleID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert credit sale: %w", err)
	}
	return nil
}

// GetBySaleID cuenta generada por la venta, nil si fue de contado.
func (r *CreditSaleRepo) GetBySaleID(ctx context.Context, saleID string) (*entity.CreditSale, error) {
	c, err := scanCredit(r.q.QueryRow(ctx, `SELECT `+creditColumns+` FROM credit_sales WHERE sale_id = $1`, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit sale: %w", err)
	}
	return c, nil
}

// ListByCustomer todas las cuentas del cliente en orden FIFO.
func (r *CreditSaleRepo) ListByCustomer(ctx context.Context, customerID string) ([]*entity.CreditSale, error) {
	return r.list(ctx, `SELECT `+creditColumns+` FROM credit_sales WHERE customer_id = $1`+fifoOrder, customerID)
}

// ListOpenForUpdate cuentas PENDING/OVERDUE del cliente en orden FIFO, bloqueadas.
func (r *CreditSaleRepo) ListOpenForUpdate(ctx context.Context, customerID string) ([]*entity.CreditSale, error) {
	return r.list(ctx, `SELECT `+creditColumns+` FROM credit_sales
		WHERE customer_id = $1 AND status IN ($2, $3)`+fifoOrder+` FOR UPDATE`,
		customerID, string(entity.CreditPending), string(entity.CreditOverdue))
}

// ListOverdueCandidates cuentas PENDING con saldo y vencidas a now, bloqueadas para el barrido.
func (r *CreditSaleRepo) ListOverdueCandidates(ctx context.Context, now time.Time) ([]*entity.CreditSale, error) {
	return r.list(ctx, `SELECT `+creditColumns+` FROM credit_sales
		WHERE status = $1 AND remaining_balance > 0 AND due_date IS NOT NULL AND due_date < $2`+fifoOrder+`
		FOR UPDATE SKIP LOCKED`,
		string(entity.CreditPending), now)
}

// Update aplica el patch sobre la cuenta.
func (r *CreditSaleRepo) Update(ctx context.Context, id string, patch entity.CreditSalePatch) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE credit_sales SET
			paid_amount = COALESCE($2, paid_amount),
			remaining_balance = COALESCE($3, remaining_balance),
			status = COALESCE($4, status),
			updated_at = $5
		WHERE id = $1`,
		id, patch.PaidAmount, patch.RemainingBalance, (*string)(patch.Status), patch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update credit sale: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("fiado %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *CreditSaleRepo) list(ctx context.Context, query string, args ...any) ([]*entity.CreditSale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credit sales: %w", err)
	}
	defer rows.Close()
	var list []*entity.CreditSale
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit sale: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CreditPaymentRepo abonos aplicados (append-only).
type CreditPaymentRepo struct {
	q Querier
}

// NewCreditPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditPaymentRepository(q Querier) *CreditPaymentRepo {
	return &CreditPaymentRepo{q: q}
}

// Create persiste un abono.
func (r *CreditPaymentRepo) Create(ctx context.Context, p *entity.CreditPayment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO credit_payments (id, credit_sale_id, customer_id, amount, method, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.CreditSaleID, p.CustomerID, p.Amount, string(p.Method), p.Notes, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit payment: %w", err)
	}
	return nil
}

// ListByCreditSale abonos de una cuenta en orden de registro.
func (r *CreditPaymentRepo) ListByCreditSale(ctx context.Context, creditSaleID string) ([]*entity.CreditPayment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, credit_sale_id, customer_id, amount, method, notes, created_by, created_at
		FROM credit_payments WHERE credit_sale_id = $1 ORDER BY created_at, id`, creditSaleID)
	if err != nil {
		return nil, fmt.Errorf("list credit payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.CreditPayment
	for rows.Next() {
		var (
			p      entity.CreditPayment
			method string
		)
		if err := rows.Scan(&p.ID, &p.CreditSaleID, &p.CustomerID, &p.Amount, &method, &p.Notes,
			&p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit payment: %w", err)
		}
		p.Method = entity.PaymentMethod(method)
		list = append(list, &p)
	}
	return list, rows.Err()
}
