package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentChannel struct {
	Code string
	Name string
}

type Bank struct {
	Code string
	Name string
}

// BankAccount is a whitelisted payout destination for a customer. Read-only
// to the workflow engines.
type BankAccount struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	BankCode      string
	AccountNumber string
	HolderName    string
	CreatedAt     time.Time
}

// FeeQuote carries the currency it was computed for. A quote presented at
// approval time with a different currency than the withdrawal is stale and
// must be rejected, never silently reused.
type FeeQuote struct {
	Currency Currency        `json:"currency"`
	Fee      decimal.Decimal `json:"fee"`
	QuotedAt time.Time       `json:"quoted_at"`
}
