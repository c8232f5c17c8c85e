package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecordType string

const (
	RecordTypeCredit RecordType = "credit"
	RecordTypeDebit  RecordType = "debit"
)

func (t RecordType) IsValid() bool {
	return t == RecordTypeCredit || t == RecordTypeDebit
}

// ReconciliationRecord is one bank-statement line. MatchStatus is derived by
// the matcher from completed deposit claims and never flips back to
// unmatched without an explicit reversal.
type ReconciliationRecord struct {
	ID          uuid.UUID
	Currency    Currency
	Amount      decimal.Decimal
	Type        RecordType
	ReferenceNo *string
	MatchStatus MatchStatus
	ClaimID     *uuid.UUID
	Remark      *string
	CreatedAt   time.Time
}

type ReconFilter struct {
	MatchStatus *MatchStatus
	StartTime   *time.Time
	EndTime     *time.Time
	Keyword     string
}

// ReconStats is derived on demand, never stored. Percentages are defined as
// zero when TotalCount is zero.
type ReconStats struct {
	TotalCount       int     `json:"total_count"`
	MatchedCount     int     `json:"matched_count"`
	UnmatchedCount   int     `json:"unmatched_count"`
	MatchedPercent   float64 `json:"matched_percent"`
	UnmatchedPercent float64 `json:"unmatched_percent"`
}

// StatementLine is one row of an ingested bank statement batch.
type StatementLine struct {
	ReferenceNo       string
	Currency          Currency
	Amount            decimal.Decimal
	Type              RecordType
	Channel           Channel
	AccountHolderName string
	Remark            string
	ValueDate         time.Time
}
