package domain

import "errors"

// Sentinel errors for domain-level error handling.
// Callers compare with errors.Is; ingestion and the batch service decide
// whether a given kind is fatal or skipped.
var (
	ErrDuplicateClient      = errors.New("duplicate_client")
	ErrUnknownClient        = errors.New("unknown_client")
	ErrArithmeticOverflow   = errors.New("arithmetic_overflow")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrInvalidSide          = errors.New("invalid_side")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
