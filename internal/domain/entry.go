package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryDeposit     EntryKind = "deposit"
	EntryWithdrawal  EntryKind = "withdrawal"
	EntryTransferOut EntryKind = "transfer_out"
	EntryTransferIn  EntryKind = "transfer_in"
	EntryInterest    EntryKind = "interest"
)

// Entry is an immutable record of one balance-affecting event.
// Amount is signed: credits are positive, debits negative.
// Counterparty is the other account of a transfer and zero otherwise.
type Entry struct {
	ID           uuid.UUID       `json:"id"`
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty int64           `json:"counterparty,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func newEntry(kind EntryKind, amount decimal.Decimal, counterparty int64) Entry {
	return Entry{
		ID:           uuid.New(),
		Kind:         kind,
		Amount:       amount,
		Counterparty: counterparty,
		Timestamp:    time.Now(),
	}
}
