package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, type, status, COALESCE(customer_id, ''), warehouse_id, subtotal, discount_amount, tax_amount, total,
	paid_amount, change_amount, credit_amount, credit_due_date, notes, cancel_reason, cancelled_at, cancelled_by,
	created_by, created_at, updated_at`

// SaleRepo ventas con sus líneas y pagos. Una venta confirmada solo admite Cancel.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera, líneas y pagos. Debe correr dentro de la tx de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, type, status, customer_id, warehouse_id, subtotal, discount_amount, tax_amount, total,
			paid_amount, change_amount, credit_amount, credit_due_date, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		s.ID, string(s.Type), string(s.Status), s.CustomerID, s.WarehouseID, s.Subtotal, s.DiscountAmount,
		s.TaxAmount, s.Total, s.PaidAmount, s.ChangeAmount, s.CreditAmount, s.CreditDueDate, s.Notes,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("venta %s: %w", s.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for i, it := range s.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, line_no, product_id, variant_id, quantity, unit_price, discount_percent,
				discount_amount, tax_rate, subtotal, tax_amount, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			it.ID, s.ID, i, it.ProductID, it.VariantID, it.Quantity, it.UnitPrice, it.DiscountPercent,
			it.DiscountAmount, it.TaxRate, it.Subtotal, it.TaxAmount, it.Total,
		)
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", i+1, err)
		}
	}
	for i, p := range s.Payments {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_payments (id, sale_id, line_no, method, amount, received_amount, change_given, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, s.ID, i, string(p.Method), p.Amount, p.ReceivedAmount, p.ChangeGiven, p.Reference, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert sale payment %d: %w", i+1, err)
		}
	}
	return nil
}

// GetByID obtiene la venta completa.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta completa y bloquea la cabecera.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var (
		s           entity.Sale
		typ, status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &typ, &status, &s.CustomerID, &s.WarehouseID, &s.Subtotal, &s.DiscountAmount, &s.TaxAmount, &s.Total,
		&s.PaidAmount, &s.ChangeAmount, &s.CreditAmount, &s.CreditDueDate, &s.Notes, &s.CancelReason, &s.CancelledAt,
		&s.CancelledBy, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.Type = entity.SaleType(typ)
	s.Status = entity.SaleStatus(status)

	if s.Items, err = r.items(ctx, s.ID); err != nil {
		return nil, err
	}
	if s.Payments, err = r.payments(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) items(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, variant_id, quantity, unit_price, discount_percent, discount_amount,
			tax_rate, subtotal, tax_amount, total
		FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	var list []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice,
			&it.DiscountPercent, &it.DiscountAmount, &it.TaxRate, &it.Subtotal, &it.TaxAmount, &it.Total); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *SaleRepo) payments(ctx context.Context, saleID string) ([]entity.SalePayment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, method, amount, received_amount, change_given, reference, created_at
		FROM sale_payments WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale payments: %w", err)
	}
	defer rows.Close()
	var list []entity.SalePayment
	for rows.Next() {
		var (
			p      entity.SalePayment
			method string
		)
		if err := rows.Scan(&p.ID, &p.SaleID, &method, &p.Amount, &p.ReceivedAmount, &p.ChangeGiven,
			&p.Reference, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale payment: %w", err)
		}
		p.Method = entity.PaymentMethod(method)
		list = append(list, p)
	}
	return list, rows.Err()
}

// Cancel marca la venta COMPLETED como CANCELLED. Otro estado es domain.ErrInvalidState.
func (r *SaleRepo) Cancel(ctx context.Context, id string, c entity.SaleCancellation) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales SET status = $2, cancel_reason = $3, cancelled_by = $4, cancelled_at = $5, updated_at = $5
		WHERE id = $1 AND status = $6`,
		id, string(entity.SaleStatusCancelled), c.Reason, c.CancelledBy, c.CancelledAt, string(entity.SaleStatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("cancel sale: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: venta %s no está %s", domain.ErrInvalidState, id, entity.SaleStatusCompleted)
	}
	return nil
}
