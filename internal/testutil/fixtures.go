package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

var SystemOperatorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func SeedOperator(t *testing.T, db *sql.DB, email string) *domain.Operator {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	op := &domain.Operator{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test Operator",
		PasswordHash: string(hash),
		Status:       domain.OperatorStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO operators (id, email, name, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		op.ID, op.Email, op.Name, op.PasswordHash, op.Status, op.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed operator %s: %v", email, err)
	}
	return op
}

type ClaimOpt func(*domain.DepositClaim)

func WithClaimCustomer(customerID uuid.UUID) ClaimOpt {
	return func(c *domain.DepositClaim) { c.CustomerID = &customerID }
}

func WithClaimStatus(status domain.ClaimStatus) ClaimOpt {
	return func(c *domain.DepositClaim) { c.Status = status }
}

func WithClaimReference(refNo string) ClaimOpt {
	return func(c *domain.DepositClaim) { c.ReferenceNo = &refNo }
}

func WithClaimCreatedAt(ts time.Time) ClaimOpt {
	return func(c *domain.DepositClaim) {
		c.CreatedAt = ts
		c.UpdatedAt = ts
	}
}

func SeedClaim(t *testing.T, db *sql.DB, currency string, amount string, opts ...ClaimOpt) *domain.DepositClaim {
	t.Helper()

	now := time.Now().UTC()
	c := &domain.DepositClaim{
		ID:                uuid.New(),
		Channel:           domain.ChannelWire,
		Currency:          domain.Currency(currency),
		Amount:            decimal.RequireFromString(amount),
		AccountHolderName: "ACME TRADING LTD",
		Status:            domain.ClaimStatusPending,
		MatchStatus:       domain.MatchStatusUnmatched,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(c)
	}

	_, err := db.Exec(
		`INSERT INTO deposit_claims (
			id, reference_no, channel, currency, amount, account_holder_name,
			status, match_status, customer_id, remark, voucher_url,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.ReferenceNo, c.Channel, c.Currency, c.Amount, c.AccountHolderName,
		c.Status, c.MatchStatus, c.CustomerID, c.Remark, c.VoucherURL,
		c.CreatedAt, c.UpdatedAt, c.CompletedAt,
	)
	if err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return c
}

func SeedWithdrawal(t *testing.T, db *sql.DB, customerID uuid.UUID, currency, amount, recipient string) *domain.WithdrawalApproval {
	t.Helper()

	now := time.Now().UTC()
	w := &domain.WithdrawalApproval{
		ID:         uuid.New(),
		CustomerID: customerID,
		Currency:   domain.Currency(currency),
		Amount:     decimal.RequireFromString(amount),
		Recipient:  recipient,
		Purpose:    "supplier payment",
		Status:     domain.WithdrawalStatusSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := db.Exec(
		`INSERT INTO withdrawal_approvals (
			id, customer_id, currency, amount, recipient, purpose,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.CustomerID, w.Currency, w.Amount, w.Recipient, w.Purpose,
		w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed withdrawal: %v", err)
	}
	return w
}

func SeedAccount(t *testing.T, db *sql.DB, customerID uuid.UUID, currency, balance string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO accounts (id, customer_id, currency, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, 0, now())`,
		id, customerID, currency, decimal.RequireFromString(balance),
	)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", customerID, currency, err)
	}
	return id
}

func SeedWhitelistEntry(t *testing.T, db *sql.DB, customerID uuid.UUID, accountNumber string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO bank_account_whitelist (id, customer_id, bank_code, account_number, holder_name, created_at)
		 VALUES ($1, $2, 'HSBC', $3, 'ACME TRADING LTD', now())`,
		uuid.New(), customerID, accountNumber,
	)
	if err != nil {
		t.Fatalf("seed whitelist entry: %v", err)
	}
}

type ReconOpt func(*domain.ReconciliationRecord)

func WithReconReference(refNo string) ReconOpt {
	return func(rec *domain.ReconciliationRecord) { rec.ReferenceNo = &refNo }
}

func WithReconMatched(claimID uuid.UUID) ReconOpt {
	return func(rec *domain.ReconciliationRecord) {
		rec.MatchStatus = domain.MatchStatusMatched
		rec.ClaimID = &claimID
	}
}

func WithReconCreatedAt(ts time.Time) ReconOpt {
	return func(rec *domain.ReconciliationRecord) { rec.CreatedAt = ts }
}

func SeedReconRecord(t *testing.T, db *sql.DB, currency, amount string, opts ...ReconOpt) *domain.ReconciliationRecord {
	t.Helper()

	rec := &domain.ReconciliationRecord{
		ID:          uuid.New(),
		Currency:    domain.Currency(currency),
		Amount:      decimal.RequireFromString(amount),
		Type:        domain.RecordTypeCredit,
		MatchStatus: domain.MatchStatusUnmatched,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(rec)
	}

	_, err := db.Exec(
		`INSERT INTO reconciliation_records (
			id, currency, amount, type, reference_no, match_status, claim_id, remark, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Currency, rec.Amount, rec.Type, rec.ReferenceNo, rec.MatchStatus,
		rec.ClaimID, rec.Remark, rec.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed recon record: %v", err)
	}
	return rec
}

func GetBalance(t *testing.T, db *sql.DB, customerID uuid.UUID, currency string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(
		`SELECT balance FROM accounts WHERE customer_id = $1 AND currency = $2`,
		customerID, currency,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s/%s: %v", customerID, currency, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, refType string, refID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE ref_type = $1 AND ref_id = $2`,
		refType, refID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for %s %s: %v", refType, refID, err)
	}
	return count
}

func CountTransitionEvents(t *testing.T, db *sql.DB, entityType string, entityID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transition_events WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transition events for %s %s: %v", entityType, entityID, err)
	}
	return count
}
