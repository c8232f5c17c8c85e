package recon_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/repository"
	"github.com/fiatops/custody-backoffice/internal/service/recon"
	"github.com/fiatops/custody-backoffice/internal/testutil"
)

func setupReconService(t *testing.T, db *sql.DB) *recon.Service {
	t.Helper()
	return recon.NewService(
		repository.NewReconRepository(db),
		repository.NewClaimRepository(db),
		db,
		48*time.Hour,
	)
}

func TestStats_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)

	stats, err := svc.Stats(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)
	assert.Equal(t, 0, stats.MatchedCount)
	assert.Equal(t, 0, stats.UnmatchedCount)
	assert.Equal(t, float64(0), stats.MatchedPercent)
	assert.Equal(t, float64(0), stats.UnmatchedPercent)
}

func TestStats_Percentages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)

	claimID := uuid.New()
	for i := range 3 {
		testutil.SeedReconRecord(t, db, "USD", "100.00",
			testutil.WithReconReference("M-"+string(rune('A'+i))),
			testutil.WithReconMatched(claimID))
	}
	for i := range 7 {
		testutil.SeedReconRecord(t, db, "USD", "200.00",
			testutil.WithReconReference("U-"+string(rune('A'+i))))
	}

	stats, err := svc.Stats(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalCount)
	assert.Equal(t, 3, stats.MatchedCount)
	assert.Equal(t, 7, stats.UnmatchedCount)
	assert.InDelta(t, 30.0, stats.MatchedPercent, 0.001)
	assert.InDelta(t, 70.0, stats.UnmatchedPercent, 0.001)
}

func TestRematch_ByReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	claim := testutil.SeedClaim(t, db, "USD", "1500.00",
		testutil.WithClaimReference("TXN-REF-1"),
		testutil.WithClaimStatus(domain.ClaimStatusCompleted),
		testutil.WithClaimCustomer(customerID))
	rec := testutil.SeedReconRecord(t, db, "USD", "1500.00",
		testutil.WithReconReference("TXN-REF-1"))

	matched, err := svc.Rematch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, matched)

	var status int
	var claimID uuid.UUID
	require.NoError(t, db.QueryRow(
		`SELECT match_status, claim_id FROM reconciliation_records WHERE id = $1`, rec.ID,
	).Scan(&status, &claimID))
	assert.Equal(t, int(domain.MatchStatusMatched), status)
	assert.Equal(t, claim.ID, claimID)

	// Re-running is a no-op, never an un-match.
	matched, err = svc.Rematch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
}

func TestRematch_ByAmountWithinWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	testutil.SeedClaim(t, db, "HKD", "700.00",
		testutil.WithClaimStatus(domain.ClaimStatusCompleted),
		testutil.WithClaimCreatedAt(now.Add(-24*time.Hour)))
	// A reference-less statement line matches on currency and amount.
	rec := testutil.SeedReconRecord(t, db, "HKD", "700.00",
		testutil.WithReconCreatedAt(now))

	matched, err := svc.Rematch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, matched)

	var status int
	require.NoError(t, db.QueryRow(
		`SELECT match_status FROM reconciliation_records WHERE id = $1`, rec.ID,
	).Scan(&status))
	assert.Equal(t, int(domain.MatchStatusMatched), status)
}

func TestRematch_OutsideWindowStaysUnmatched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)

	now := time.Now().UTC()
	testutil.SeedClaim(t, db, "HKD", "700.00",
		testutil.WithClaimStatus(domain.ClaimStatusCompleted),
		testutil.WithClaimCreatedAt(now.Add(-80*time.Hour)))
	rec := testutil.SeedReconRecord(t, db, "HKD", "700.00",
		testutil.WithReconCreatedAt(now))

	matched, err := svc.Rematch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, matched)

	var status int
	require.NoError(t, db.QueryRow(
		`SELECT match_status FROM reconciliation_records WHERE id = $1`, rec.ID,
	).Scan(&status))
	assert.Equal(t, int(domain.MatchStatusUnmatched), status)
}

func TestRematch_AmbiguousStaysUnmatched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)

	now := time.Now().UTC()
	// Two completed claims with identical currency and amount in the window:
	// the matcher must not guess.
	testutil.SeedClaim(t, db, "USD", "300.00",
		testutil.WithClaimStatus(domain.ClaimStatusCompleted),
		testutil.WithClaimCreatedAt(now.Add(-2*time.Hour)))
	testutil.SeedClaim(t, db, "USD", "300.00",
		testutil.WithClaimStatus(domain.ClaimStatusCompleted),
		testutil.WithClaimCreatedAt(now.Add(-3*time.Hour)))
	rec := testutil.SeedReconRecord(t, db, "USD", "300.00",
		testutil.WithReconCreatedAt(now))

	matched, err := svc.Rematch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, matched)

	var status int
	require.NoError(t, db.QueryRow(
		`SELECT match_status FROM reconciliation_records WHERE id = $1`, rec.ID,
	).Scan(&status))
	assert.Equal(t, int(domain.MatchStatusUnmatched), status)
}

func TestRematch_PendingClaimIsNoCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)

	testutil.SeedClaim(t, db, "USD", "42.00", testutil.WithClaimReference("TXN-P"))
	testutil.SeedReconRecord(t, db, "USD", "42.00", testutil.WithReconReference("TXN-P"))

	matched, err := svc.Rematch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
}

func TestImportStatements(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)
	ctx := context.Background()

	lines := []domain.StatementLine{
		{
			ReferenceNo:       "ST-001",
			Currency:          domain.CurrencyUSD,
			Amount:            decimal.RequireFromString("120.00"),
			Type:              domain.RecordTypeCredit,
			Channel:           domain.ChannelWire,
			AccountHolderName: "ACME TRADING LTD",
		},
		{
			ReferenceNo: "ST-002",
			Currency:    domain.CurrencyUSD,
			Amount:      decimal.RequireFromString("75.50"),
			Type:        domain.RecordTypeDebit,
		},
	}

	summary, err := svc.ImportStatements(ctx, lines)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Skipped)

	var recordCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reconciliation_records`).Scan(&recordCount))
	assert.Equal(t, 2, recordCount)

	// Only the credit line opens a claimable deposit.
	var claimCount int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM deposit_claims WHERE reference_no = 'ST-001' AND status = 0`,
	).Scan(&claimCount))
	assert.Equal(t, 1, claimCount)
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM deposit_claims WHERE reference_no = 'ST-002'`,
	).Scan(&claimCount))
	assert.Equal(t, 0, claimCount)
}

func TestImportStatements_DuplicateReferenceSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)
	ctx := context.Background()

	lines := []domain.StatementLine{{
		ReferenceNo:       "ST-DUP",
		Currency:          domain.CurrencyUSD,
		Amount:            decimal.RequireFromString("10.00"),
		Type:              domain.RecordTypeCredit,
		Channel:           domain.ChannelFPS,
		AccountHolderName: "ACME TRADING LTD",
	}}

	first, err := svc.ImportStatements(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Ingested)

	// Re-importing the same statement file must be harmless.
	second, err := svc.ImportStatements(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Ingested)
	assert.Equal(t, 1, second.Skipped)

	var recordCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reconciliation_records`).Scan(&recordCount))
	assert.Equal(t, 1, recordCount)
}

func TestImportStatements_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconService(t, db)
	ctx := context.Background()

	_, err := svc.ImportStatements(ctx, nil)
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = svc.ImportStatements(ctx, []domain.StatementLine{{
		ReferenceNo: "ST-BAD",
		Currency:    "XYZ",
		Amount:      decimal.RequireFromString("10.00"),
		Type:        domain.RecordTypeDebit,
	}})
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)
}
