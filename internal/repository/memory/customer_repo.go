package memory

import (
	"context"
	"fmt"
	"sync"

	"bank_core/internal/domain"
	"bank_core/internal/repository"
)

type CustomerDirectory struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

func NewCustomerDirectory() *CustomerDirectory {
	return &CustomerDirectory{
		customers: make(map[string]*domain.Customer),
	}
}

func (r *CustomerDirectory) Register(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.customers[customer.TaxID]; exists {
		return fmt.Errorf("%w: tax id %s", repository.ErrDuplicate, customer.TaxID)
	}

	r.customers[customer.TaxID] = customer.Snapshot()
	return nil
}

func (r *CustomerDirectory) GetByTaxID(ctx context.Context, taxID string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, exists := r.customers[taxID]
	if !exists {
		return nil, fmt.Errorf("%w: customer %s", repository.ErrNotFound, taxID)
	}
	return customer.Snapshot(), nil
}

func (r *CustomerDirectory) Owns(ctx context.Context, taxID string, accountID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, exists := r.customers[taxID]
	if !exists {
		return false, fmt.Errorf("%w: customer %s", repository.ErrNotFound, taxID)
	}
	return customer.Owns(accountID), nil
}

func (r *CustomerDirectory) LinkAccount(ctx context.Context, taxID string, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, exists := r.customers[taxID]
	if !exists {
		return fmt.Errorf("%w: customer %s", repository.ErrNotFound, taxID)
	}

	customer.AccountIDs = append(customer.AccountIDs, accountID)
	return nil
}
