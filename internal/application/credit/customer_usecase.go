package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// CustomerUseCase alta de clientes y ajuste de su cupo de fiado.
type CustomerUseCase struct {
	txRunner TxRunner
	cache    SummaryCache
	clock    domain.Clock
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(txRunner TxRunner, cache SummaryCache, clock domain.Clock) *CustomerUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &CustomerUseCase{txRunner: txRunner, cache: cache, clock: clock}
}

// Create crea un nuevo cliente.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*entity.Customer, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	customer := &entity.Customer{
		ID:            uuid.New().String(),
		Name:          in.Name,
		TaxID:         in.TaxID,
		Email:         in.Email,
		Phone:         in.Phone,
		CreditEnabled: in.CreditEnabled,
		CreditLimit:   in.CreditLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		return tx.Customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// UpdateCredit cambia habilitación y/o cupo. Bajar el cupo por debajo de lo usado no cancela
// deudas; solo bloquea nuevas ventas a fiado hasta que haya cupo.
func (uc *CustomerUseCase) UpdateCredit(ctx context.Context, customerID string, in dto.UpdateCreditRequest) (*entity.Customer, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.CreditEnabled == nil && in.CreditLimit == nil {
		return nil, fmt.Errorf("%w: nada que actualizar", domain.ErrInvalidInput)
	}
	var updated *entity.Customer
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		c, err := tx.Customers.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrCustomerNotFound
		}
		if in.CreditEnabled != nil {
			c.CreditEnabled = *in.CreditEnabled
		}
		if in.CreditLimit != nil {
			c.CreditLimit = *in.CreditLimit
		}
		c.UpdatedAt = uc.clock.Now()
		if err := tx.Customers.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = uc.cache.Invalidate(ctx, customerID)
	return updated, nil
}
