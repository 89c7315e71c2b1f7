package validator

import (
	"bank_core/internal/domain"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation wraps every registration failure so transport
	// layers can classify them without knowing each rule.
	ErrValidation = errors.New("validation failed")

	ErrInvalidTaxID      = errors.New("tax id must be 11 digits")
	ErrEmptyName         = errors.New("name is required")
	ErrCredentialTooWeak = errors.New("credential must be at least 4 characters")
)

type RequestValidator struct {
	taxIDRegex *regexp.Regexp
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		taxIDRegex: regexp.MustCompile(`^[0-9]{11}$`),
	}
}

// ValidateAmount accepts positive amounts with at most two decimal
// places, matching the fixed-point money semantics of the ledger.
func (v *RequestValidator) ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: at most two decimal places", domain.ErrInvalidAmount)
	}
	return nil
}

func (v *RequestValidator) ValidateRegistration(name, taxID, credential string) error {
	var errs []error

	if name == "" {
		errs = append(errs, ErrEmptyName)
	}
	if !v.taxIDRegex.MatchString(taxID) {
		errs = append(errs, ErrInvalidTaxID)
	}
	if len(credential) < 4 {
		errs = append(errs, ErrCredentialTooWeak)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrValidation, errs)
	}
	return nil
}
