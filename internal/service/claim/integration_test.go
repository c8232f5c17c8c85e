package claim_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/repository"
	"github.com/fiatops/custody-backoffice/internal/service/claim"
	"github.com/fiatops/custody-backoffice/internal/testutil"
)

func setupClaimService(t *testing.T, db *sql.DB) *claim.Service {
	t.Helper()
	return claim.NewService(
		repository.NewClaimRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAuditRepository(db),
		nil,
		db,
	)
}

func TestClaimSingle_ApproveHappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	seeded := testutil.SeedClaim(t, db, "USD", "2500.00", testutil.WithClaimReference("TXN-001"))

	c, err := svc.ClaimSingle(ctx, claim.SingleClaimRequest{
		ClaimID:    seeded.ID,
		Action:     domain.ClaimActionApprove,
		CustomerID: &customerID,
		Remark:     "verified against statement",
		Actor:      operator.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusCompleted, c.Status)
	assert.Equal(t, domain.MatchStatusMatched, c.MatchStatus)
	require.NotNil(t, c.CustomerID)
	assert.Equal(t, customerID, *c.CustomerID)
	assert.NotNil(t, c.CompletedAt)

	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("2500.00")),
		"balance: got %s, want 2500.00", balance)

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "claim", seeded.ID))
	assert.Equal(t, 1, testutil.CountTransitionEvents(t, db, "claim", seeded.ID))
}

func TestClaimSingle_ApproveKeepsExistingCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	matched := uuid.New()
	supplied := uuid.New()
	seeded := testutil.SeedClaim(t, db, "HKD", "800.00", testutil.WithClaimCustomer(matched))

	c, err := svc.ClaimSingle(ctx, claim.SingleClaimRequest{
		ClaimID:    seeded.ID,
		Action:     domain.ClaimActionApprove,
		CustomerID: &supplied,
		Remark:     "batch remainder",
		Actor:      operator.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, c.CustomerID)
	assert.Equal(t, matched, *c.CustomerID)

	balance := testutil.GetBalance(t, db, matched, "HKD")
	assert.True(t, balance.Equal(decimal.RequireFromString("800.00")))
}

func TestClaimSingle_ApproveWithoutCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	seeded := testutil.SeedClaim(t, db, "USD", "100.00")

	_, err := svc.ClaimSingle(ctx, claim.SingleClaimRequest{
		ClaimID: seeded.ID,
		Action:  domain.ClaimActionApprove,
		Remark:  "no customer known",
		Actor:   operator.ID,
	})

	require.ErrorIs(t, err, domain.ErrMissingCustomer)

	// Transaction rolled back, so the claim is still claimable.
	var status int
	require.NoError(t, db.QueryRow(`SELECT status FROM deposit_claims WHERE id = $1`, seeded.ID).Scan(&status))
	assert.Equal(t, int(domain.ClaimStatusPending), status)
}

func TestClaimSingle_Reject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	seeded := testutil.SeedClaim(t, db, "EUR", "430.00")

	c, err := svc.ClaimSingle(ctx, claim.SingleClaimRequest{
		ClaimID: seeded.ID,
		Action:  domain.ClaimActionReject,
		Remark:  "payer name does not match any customer",
		Actor:   operator.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusFailed, c.Status)
	assert.Equal(t, domain.MatchStatusUnmatched, c.MatchStatus)

	// A rejection never touches the ledger.
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, "claim", seeded.ID))
	assert.Equal(t, 1, testutil.CountTransitionEvents(t, db, "claim", seeded.ID))
}

func TestClaimSingle_AlreadyProcessed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	seeded := testutil.SeedClaim(t, db, "USD", "50.00")

	req := claim.SingleClaimRequest{
		ClaimID:    seeded.ID,
		Action:     domain.ClaimActionApprove,
		CustomerID: &customerID,
		Remark:     "first pass",
		Actor:      operator.ID,
	}
	_, err := svc.ClaimSingle(ctx, req)
	require.NoError(t, err)

	_, err = svc.ClaimSingle(ctx, req)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	// No double credit.
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "claim", seeded.ID))
	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("50.00")))
}

func TestClaimSingle_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()

	_, err := svc.ClaimSingle(context.Background(), claim.SingleClaimRequest{
		ClaimID:    uuid.New(),
		Action:     domain.ClaimActionApprove,
		CustomerID: &customerID,
		Remark:     "ghost",
		Actor:      operator.ID,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaimSingle_ConcurrentApprove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()
	seeded := testutil.SeedClaim(t, db, "USD", "999.00")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ClaimSingle(ctx, claim.SingleClaimRequest{
				ClaimID:    seeded.ID,
				Action:     domain.ClaimActionApprove,
				CustomerID: &customerID,
				Remark:     "race",
				Actor:      operator.ID,
			})
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

	// Exactly one credit despite the stampede.
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "claim", seeded.ID))
	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("999.00")),
		"balance: got %s, want 999.00", balance)
}

func TestClaimBatch_PartialFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")
	customerID := uuid.New()

	good := testutil.SeedClaim(t, db, "USD", "10.00")
	done := testutil.SeedClaim(t, db, "USD", "20.00", testutil.WithClaimStatus(domain.ClaimStatusCompleted))
	missing := uuid.New()

	result, err := svc.ClaimBatch(ctx, claim.BatchClaimRequest{
		ClaimIDs:   []uuid.UUID{good.ID, done.ID, missing},
		CustomerID: customerID,
		Remark:     "month-end sweep",
		Actor:      operator.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{good.ID}, result.Succeeded)
	require.Len(t, result.Failed, 2)

	reasons := map[uuid.UUID]string{}
	for _, f := range result.Failed {
		reasons[f.ID] = f.Reason
	}
	assert.Equal(t, "ALREADY_PROCESSED", reasons[done.ID])
	assert.Equal(t, "NOT_FOUND", reasons[missing])

	balance := testutil.GetBalance(t, db, customerID, "USD")
	assert.True(t, balance.Equal(decimal.RequireFromString("10.00")))
}

func TestClaimBatch_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupClaimService(t, db)
	ctx := context.Background()

	operator := testutil.SeedOperator(t, db, "ops@test.com")

	_, err := svc.ClaimBatch(ctx, claim.BatchClaimRequest{
		ClaimIDs:   nil,
		CustomerID: uuid.New(),
		Remark:     "empty",
		Actor:      operator.ID,
	})
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = svc.ClaimBatch(ctx, claim.BatchClaimRequest{
		ClaimIDs:   []uuid.UUID{uuid.New()},
		CustomerID: uuid.Nil,
		Remark:     "no customer",
		Actor:      operator.ID,
	})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}
