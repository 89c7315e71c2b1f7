package domain

// Customer owns a set of account references by ID. The directory, not
// the customer, guards concurrent mutation of AccountIDs; lookups hand
// out snapshots so callers never see the live slice.
type Customer struct {
	Name           string  `json:"name"`
	TaxID          string  `json:"tax_id"`
	CredentialHash []byte  `json:"-"`
	AccountIDs     []int64 `json:"account_ids"`
}

func NewCustomer(name, taxID string, credentialHash []byte) *Customer {
	return &Customer{
		Name:           name,
		TaxID:          taxID,
		CredentialHash: credentialHash,
	}
}

// Snapshot returns an independent copy whose AccountIDs slice shares
// no backing array with the original.
func (c *Customer) Snapshot() *Customer {
	copied := *c
	copied.AccountIDs = make([]int64, len(c.AccountIDs))
	copy(copied.AccountIDs, c.AccountIDs)
	return &copied
}

func (c *Customer) Owns(accountID int64) bool {
	for _, id := range c.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}
