package repository

import (
	"context"
	"errors"

	"bank_core/internal/domain"
)

// AccountRegistry exclusively owns every Account and the identifier
// sequence. Identifiers are monotonic and start above a reserved base
// so they never collide with pre-seeded fixtures. GetByOwner returns
// an empty slice, not an error, for an owner with no accounts.
type AccountRegistry interface {
	Open(ctx context.Context, ownerTaxID string, kind domain.Kind, params domain.KindParams) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByOwner(ctx context.Context, taxID string) ([]*domain.Account, error)
	All(ctx context.Context) ([]*domain.Account, error)
}

// CustomerDirectory exclusively owns every Customer, keyed by tax id.
// Registering an already-present tax id fails with ErrDuplicate; the
// directory never overwrites an existing customer. Register and
// GetByTaxID copy the customer across the boundary, so LinkAccount can
// run concurrently with lookups; ownership questions go through Owns,
// which answers under the directory's own lock.
type CustomerDirectory interface {
	Register(ctx context.Context, customer *domain.Customer) error
	GetByTaxID(ctx context.Context, taxID string) (*domain.Customer, error)
	LinkAccount(ctx context.Context, taxID string, accountID int64) error
	Owns(ctx context.Context, taxID string, accountID int64) (bool, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
