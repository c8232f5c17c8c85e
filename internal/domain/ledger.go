package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds one customer's balance in one currency. Version guards
// balance updates against concurrent writers.
type Account struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Currency   Currency
	Balance    decimal.Decimal
	Version    int64
	CreatedAt  time.Time
}

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

type EntryRefType string

const (
	EntryRefClaim      EntryRefType = "claim"
	EntryRefWithdrawal EntryRefType = "withdrawal"
)

// LedgerEntry is append-only. (RefType, RefID, EntryType) is unique so a
// retried transition can never produce a second credit or debit for the same
// record.
type LedgerEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	EntryType     EntryType
	Amount        decimal.Decimal
	Currency      Currency
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	RefType       EntryRefType
	RefID         uuid.UUID
	CreatedAt     time.Time
}
