package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrAlreadyProcessed      = &AppError{http.StatusConflict, "ALREADY_PROCESSED", "Record has already reached a terminal status"}
	ErrMissingCustomer       = &AppError{http.StatusBadRequest, "MISSING_CUSTOMER", "No customer attributed to this claim"}
	ErrInsufficientBalance   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Customer balance is insufficient"}
	ErrStaleFeeQuote         = &AppError{http.StatusUnprocessableEntity, "STALE_FEE_QUOTE", "Fee quote does not match the withdrawal currency"}
	ErrNotWhitelisted        = &AppError{http.StatusUnprocessableEntity, "RECIPIENT_NOT_WHITELISTED", "Recipient account is not on the customer's whitelist"}
	ErrInvalidCurrency       = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidStatus         = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Invalid status code"}
	ErrUpstreamUnavailable   = &AppError{http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Upstream service is unavailable"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
