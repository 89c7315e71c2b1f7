package memory

import (
	"context"
	"fmt"
	"sync"

	"bank_core/internal/domain"
	"bank_core/internal/repository"
)

// firstAccountID keeps generated identifiers above pre-seeded test data.
const firstAccountID = 1001

type AccountRegistry struct {
	mu         sync.RWMutex
	accounts   map[int64]*domain.Account
	ownerIndex map[string][]int64
	nextID     int64
}

func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{
		accounts:   make(map[int64]*domain.Account),
		ownerIndex: make(map[string][]int64),
		nextID:     firstAccountID,
	}
}

func (r *AccountRegistry) Open(ctx context.Context, ownerTaxID string, kind domain.Kind, params domain.KindParams) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	account := domain.NewAccount(id, ownerTaxID, kind, params)
	r.accounts[id] = account
	r.ownerIndex[ownerTaxID] = append(r.ownerIndex[ownerTaxID], id)

	return account, nil
}

func (r *AccountRegistry) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
	}
	return account, nil
}

func (r *AccountRegistry) GetByOwner(ctx context.Context, taxID string) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.ownerIndex[taxID]

	// An owner with no accounts yet is not an error; whether the owner
	// exists at all is the directory's question, not the registry's.
	result := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, exists := r.accounts[id]; exists {
			result = append(result, account)
		}
	}
	return result, nil
}

func (r *AccountRegistry) All(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, account)
	}
	return result, nil
}
