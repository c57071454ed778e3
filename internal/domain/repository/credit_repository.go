package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// CreditSaleRepository persistencia de cuentas por cobrar (fiado).
type CreditSaleRepository interface {
	Create(ctx context.Context, credit *entity.CreditSale) error
	GetBySaleID(ctx context.Context, saleID string) (*entity.CreditSale, error)
	// ListByCustomer todas las cuentas del cliente ordenadas por SaleDate, CreatedAt, ID.
	ListByCustomer(ctx context.Context, customerID string) ([]*entity.CreditSale, error)
	// ListOpenForUpdate cuentas PENDING/OVERDUE en orden FIFO (SaleDate, CreatedAt, ID), bloqueadas.
	ListOpenForUpdate(ctx context.Context, customerID string) ([]*entity.CreditSale, error)
	// ListOverdueCandidates cuentas PENDING con saldo y DueDate anterior a now.
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]*entity.CreditSale, error)
	Update(ctx context.Context, id string, patch entity.CreditSalePatch) error
}

// CreditPaymentRepository persistencia append-only de abonos.
type CreditPaymentRepository interface {
	Create(ctx context.Context, payment *entity.CreditPayment) error
	ListByCreditSale(ctx context.Context, creditSaleID string) ([]*entity.CreditPayment, error)
}
