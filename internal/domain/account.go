package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindChecking Kind = "checking"
	KindSavings  Kind = "savings"
)

// KindParams carries the kind-specific behavior parameters:
// the overdraft limit for checking, the accrual rate for savings.
// The unused field stays zero.
type KindParams struct {
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	AccrualRate    decimal.Decimal `json:"accrual_rate"`
}

// Account holds a balance and its append-only entry history.
// Every balance change appends exactly one entry, so the balance
// always equals the sum of entry amounts.
//
// Mutating methods assume the caller holds the account lock via
// Acquire; they never lock themselves so a transfer can mutate
// both sides inside one critical section.
type Account struct {
	ID         int64           `json:"id"`
	OwnerTaxID string          `json:"owner_tax_id"`
	Kind       Kind            `json:"kind"`
	Params     KindParams      `json:"params"`
	Balance    decimal.Decimal `json:"balance"`

	entries []Entry
	lock    chan struct{}
}

func NewAccount(id int64, ownerTaxID string, kind Kind, params KindParams) *Account {
	return &Account{
		ID:         id,
		OwnerTaxID: ownerTaxID,
		Kind:       kind,
		Params:     params,
		Balance:    decimal.Zero,
		lock:       make(chan struct{}, 1),
	}
}

// Acquire takes the account lock, waiting at most timeout.
// A timed-out acquisition is a transient failure, distinct from
// insufficient funds.
func (a *Account) Acquire(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case a.lock <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	}
}

func (a *Account) Release() {
	<-a.lock
}

// floor is the lowest balance the account may reach after a debit.
func (a *Account) floor() decimal.Decimal {
	if a.Kind == KindChecking {
		return a.Params.OverdraftLimit.Neg()
	}
	return decimal.Zero
}

func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.entries = append(a.entries, newEntry(EntryDeposit, amount, 0))
	return nil
}

func (a *Account) Withdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance.Sub(amount).Cmp(a.floor()) < 0 {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.entries = append(a.entries, newEntry(EntryWithdrawal, amount.Neg(), 0))
	return nil
}

// TransferTo moves amount into dst. The caller must hold both account
// locks. On any failure neither account changes; on success each side
// records exactly one entry naming the counterpart, instead of the
// generic withdrawal/deposit pair.
func (a *Account) TransferTo(dst *Account, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if a.ID == dst.ID {
		return ErrSameAccount
	}
	if a.Balance.Sub(amount).Cmp(a.floor()) < 0 {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.entries = append(a.entries, newEntry(EntryTransferOut, amount.Neg(), dst.ID))
	dst.Balance = dst.Balance.Add(amount)
	dst.entries = append(dst.entries, newEntry(EntryTransferIn, amount, a.ID))
	return nil
}

// ApplyInterest accrues one period for a savings account and returns
// the appended entry; checking accounts earn nothing and return nil.
// Calling it once per period is the caller's responsibility: every
// invocation accrues, with no internal rate limiting. A zero balance
// yields no entry so the history never carries no-op records.
func (a *Account) ApplyInterest() *Entry {
	if a.Kind != KindSavings {
		return nil
	}
	interest := a.Balance.Mul(a.Params.AccrualRate)
	if interest.Sign() <= 0 {
		return nil
	}
	a.Balance = a.Balance.Add(interest)
	e := newEntry(EntryInterest, interest, 0)
	a.entries = append(a.entries, e)
	return &e
}

// History returns the entries in append order as a copy, so callers
// cannot reorder or grow the account's own slice.
func (a *Account) History() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}
