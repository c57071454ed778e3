// Package memory implementa los repositorios sobre un estado en memoria con transacciones
// copy-on-write: Run trabaja sobre una copia y solo la publica si fn no devuelve error.
// Las transacciones se serializan con un mutex, equivalente a bloquear todas las filas.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

type state struct {
	products  map[string]entity.Product
	variants  map[string]entity.Variant
	customers map[string]entity.Customer
	stock     map[entity.StockKey]entity.InventoryStock
	movements []entity.InventoryMovement
	sales     map[string]entity.Sale
	credits   map[string]entity.CreditSale
	payments  []entity.CreditPayment
}

func newState() *state {
	return &state{
		products:  make(map[string]entity.Product),
		variants:  make(map[string]entity.Variant),
		customers: make(map[string]entity.Customer),
		stock:     make(map[entity.StockKey]entity.InventoryStock),
		sales:     make(map[string]entity.Sale),
		credits:   make(map[string]entity.CreditSale),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:  make(map[string]entity.Product, len(s.products)),
		variants:  make(map[string]entity.Variant, len(s.variants)),
		customers: make(map[string]entity.Customer, len(s.customers)),
		stock:     make(map[entity.StockKey]entity.InventoryStock, len(s.stock)),
		movements: append([]entity.InventoryMovement(nil), s.movements...),
		sales:     make(map[string]entity.Sale, len(s.sales)),
		credits:   make(map[string]entity.CreditSale, len(s.credits)),
		payments:  append([]entity.CreditPayment(nil), s.payments...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.credits {
		c.credits[k] = v
	}
	return c
}

// access ejecuta fn sobre el estado: directo dentro de una tx, con el mutex fuera de ella.
type access interface {
	do(fn func(st *state) error) error
}

type txAccess struct{ st *state }

func (a txAccess) do(fn func(st *state) error) error { return fn(a.st) }

type storeAccess struct{ s *Store }

func (a storeAccess) do(fn func(st *state) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.st)
}

// Store almacenamiento en memoria. Implementa los TxRunner de inventario, ventas y fiado.
type Store struct {
	mu sync.Mutex
	st *state
}

// New crea un Store vacío.
func New() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios atados a una copia del estado; Commit = publicar la copia.
func (s *Store) Run(ctx context.Context, fn func(tx repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(newRepos(txAccess{st: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos repositorios fuera de transacción (cada llamada toma el mutex).
// No usar dentro de fn de Run: el mutex ya está tomado.
func (s *Store) Repos() repository.Repos {
	return newRepos(storeAccess{s: s})
}

func newRepos(a access) repository.Repos {
	return repository.Repos{
		Products:       &productRepo{a: a},
		Stock:          &stockRepo{a: a},
		Movements:      &movementRepo{a: a},
		Customers:      &customerRepo{a: a},
		Sales:          &saleRepo{a: a},
		Credits:        &creditSaleRepo{a: a},
		CreditPayments: &creditPaymentRepo{a: a},
	}
}
