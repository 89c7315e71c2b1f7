package memory

import (
	"bank_core/internal/repository"
)

var (
	_ repository.AccountRegistry   = (*AccountRegistry)(nil)
	_ repository.CustomerDirectory = (*CustomerDirectory)(nil)
)
