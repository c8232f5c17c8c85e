package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrAlreadyProcessed    = errors.New("record already processed")
	ErrMissingCustomer     = errors.New("no resolvable customer for claim")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrStaleFeeQuote       = errors.New("fee quote currency does not match withdrawal currency")
	ErrNotWhitelisted      = errors.New("recipient account not whitelisted for customer")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidStatus       = errors.New("invalid status value")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrInvalidRequest      = errors.New("invalid request")
)
