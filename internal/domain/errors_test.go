package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "quantity must be > 0"}
	if err.Error() != "quantity must be > 0" {
		t.Errorf("Error() = %q, want %q", err.Error(), "quantity must be > 0")
	}
}

func TestValidationError_As(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", &ValidationError{Message: "price must be > 0"})
	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As should find the ValidationError through wrapping")
	}
	if ve.Message != "price must be > 0" {
		t.Errorf("Message = %q", ve.Message)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrDuplicateClient,
		ErrUnknownClient,
		ErrArithmeticOverflow,
		ErrInsufficientFunds,
		ErrInsufficientHoldings,
		ErrInvalidSide,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
