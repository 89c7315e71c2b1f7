package validator

import (
	"errors"
	"testing"

	"bank_core/internal/domain"

	"github.com/shopspring/decimal"
)

func TestRequestValidator_ValidAmount(t *testing.T) {
	v := NewRequestValidator()

	for _, raw := range []string{"0.01", "100", "150.25"} {
		if err := v.ValidateAmount(decimal.RequireFromString(raw)); err != nil {
			t.Errorf("amount %s: expected valid, got err=%v", raw, err)
		}
	}
}

func TestRequestValidator_NonPositiveAmount(t *testing.T) {
	v := NewRequestValidator()

	for _, raw := range []string{"0", "-1", "-0.01"} {
		err := v.ValidateAmount(decimal.RequireFromString(raw))
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", raw, err)
		}
	}
}

func TestRequestValidator_SubCentAmount(t *testing.T) {
	v := NewRequestValidator()

	err := v.ValidateAmount(decimal.RequireFromString("10.001"))
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for three decimal places, got %v", err)
	}
}

func TestRequestValidator_ValidRegistration(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidateRegistration("Maria Silva", "11122233344", "s3cret"); err != nil {
		t.Fatalf("expected valid registration, got err=%v", err)
	}
}

func TestRequestValidator_MalformedTaxID(t *testing.T) {
	v := NewRequestValidator()

	for _, taxID := range []string{"", "123", "111222333445", "1112223334a"} {
		err := v.ValidateRegistration("Maria Silva", taxID, "s3cret")
		if err == nil {
			t.Errorf("tax id %q: expected error, got nil", taxID)
			continue
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("tax id %q: error not classified as ErrValidation: %v", taxID, err)
		}
	}
}

func TestRequestValidator_EmptyNameAndWeakCredential(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidateRegistration("", "11122233344", "s3cret"); err == nil {
		t.Fatal("expected error for empty name, got nil")
	}
	if err := v.ValidateRegistration("Maria Silva", "11122233344", "abc"); err == nil {
		t.Fatal("expected error for short credential, got nil")
	}
}
