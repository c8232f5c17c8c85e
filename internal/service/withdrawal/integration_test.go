package withdrawal_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/lookup"
	"github.com/fiatops/custody-backoffice/internal/repository"
	"github.com/fiatops/custody-backoffice/internal/service/withdrawal"
	"github.com/fiatops/custody-backoffice/internal/testutil"
)

func setupWithdrawalService(t *testing.T, db *sql.DB) *withdrawal.Service {
	t.Helper()
	return withdrawal.NewService(
		repository.NewWithdrawalRepository(db),
		repository.NewLedgerRepository(db),
		lookup.NewService(repository.NewLookupRepository(db)),
		repository.NewAuditRepository(db),
		db,
	)
}

func approveReq(id, actor uuid.UUID, currency string) withdrawal.ApproveRequest {
	return withdrawal.ApproveRequest{
		ID:               id,
		PaymentChannel:   "wire",
		PaymentBank:      "HSBC",
		VoucherURL:       "/vouchers/abc123",
		Remark:           "payout confirmed",
		FeeQuoteCurrency: domain.Currency(currency),
		FeeQuoteAmount:   decimal.RequireFromString("15.00"),
		Actor:            actor,
	}
}

func TestApprove_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "5000.00")
	testutil.SeedWhitelistEntry(t, db, customerID, "123-456-789")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "123-456-789")

	w, err := svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "USD"))

	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, w.Status)
	require.NotNil(t, w.PaymentChannel)
	assert.Equal(t, "wire", *w.PaymentChannel)
	require.NotNil(t, w.PaymentBank)
	assert.Equal(t, "HSBC", *w.PaymentBank)
	require.NotNil(t, w.VoucherURL)
	require.NotNil(t, w.ApprovalRemark)
	require.NotNil(t, w.FeeAmount)
	assert.True(t, w.FeeAmount.Equal(decimal.RequireFromString("15.00")))
	assert.NotNil(t, w.CompletedAt)

	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("2000.00")),
		"balance: got %s, want 2000.00", balance)

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "withdrawal", seeded.ID))
	assert.Equal(t, 1, testutil.CountTransitionEvents(t, db, "withdrawal", seeded.ID))
}

func TestApprove_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "100.00")
	testutil.SeedWhitelistEntry(t, db, customerID, "123-456-789")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "123-456-789")

	_, err := svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "USD"))

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, "withdrawal", seeded.ID))

	// Rolled back, so a later approve (after a deposit) can still run.
	var status int
	require.NoError(t, db.QueryRow(`SELECT status FROM withdrawal_approvals WHERE id = $1`, seeded.ID).Scan(&status))
	assert.Equal(t, int(domain.WithdrawalStatusSubmitted), status)
}

func TestApprove_NoAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedWhitelistEntry(t, db, customerID, "123-456-789")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "10.00", "123-456-789")

	_, err := svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "USD"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestApprove_StaleFeeQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "5000.00")
	testutil.SeedWhitelistEntry(t, db, customerID, "123-456-789")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "123-456-789")

	// Quote computed for HKD cannot approve a USD withdrawal.
	_, err := svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "HKD"))

	require.ErrorIs(t, err, domain.ErrStaleFeeQuote)
	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("5000.00")))
}

func TestApprove_NotWhitelisted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "5000.00")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "999-999-999")

	_, err := svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "USD"))

	require.ErrorIs(t, err, domain.ErrNotWhitelisted)
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, "withdrawal", seeded.ID))
}

func TestApprove_MissingEvidence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "10.00", "123-456-789")

	req := approveReq(seeded.ID, operator.ID, "USD")
	req.VoucherURL = ""
	_, err := svc.Approve(ctx, req)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestReject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "5000.00")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "123-456-789")

	w, err := svc.Reject(ctx, seeded.ID, "recipient flagged by compliance", operator.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, w.Status)
	require.NotNil(t, w.RejectReason)
	assert.Equal(t, "recipient flagged by compliance", *w.RejectReason)

	// Balance untouched.
	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("5000.00")))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, "withdrawal", seeded.ID))
}

func TestReject_EmptyReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	seeded := testutil.SeedWithdrawal(t, db, uuid.New(), "USD", "10.00", "123-456-789")

	_, err := svc.Reject(context.Background(), seeded.ID, "  ", operator.ID)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "10.00", "123-456-789")

	w, err := svc.Cancel(ctx, seeded.ID, "customer:"+customerID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCancelled, w.Status)

	// Terminal; a second cancel is refused.
	_, err = svc.Cancel(ctx, seeded.ID, "customer:"+customerID.String())
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestApprove_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	testutil.SeedAccount(t, db, customerID, "USD", "5000.00")
	testutil.SeedWhitelistEntry(t, db, customerID, "123-456-789")
	seeded := testutil.SeedWithdrawal(t, db, customerID, "USD", "3000.00", "123-456-789")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, approveReq(seeded.ID, operator.ID, "USD"))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
		}
	}
	assert.Equal(t, 1, winners)

	// Debited exactly once.
	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("2000.00")),
		"balance: got %s, want 2000.00", balance)
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "withdrawal", seeded.ID))
}
