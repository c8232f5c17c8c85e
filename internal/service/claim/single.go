package claim

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type SingleClaimRequest struct {
	ClaimID    uuid.UUID
	Action     domain.ClaimAction
	CustomerID *uuid.UUID
	Remark     string
	VoucherURL *string
	Actor      uuid.UUID
}

// ClaimSingle attributes (or rejects) one pending claim. The whole
// Pending -> Processing -> terminal transition happens in a single database
// transaction: the conditional update to Processing claims the row, so two
// concurrent calls on the same id have exactly one winner and the loser
// sees ErrAlreadyProcessed.
func (s *Service) ClaimSingle(ctx context.Context, req SingleClaimRequest) (*domain.DepositClaim, error) {
	log := logging.FromContext(ctx)

	if err := validateSingle(req); err != nil {
		return nil, fmt.Errorf("ClaimSingle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ClaimSingle: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.claims.LockPending(ctx, tx, req.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("ClaimSingle: %w", err)
	}

	now := time.Now().UTC()

	switch req.Action {
	case domain.ClaimActionApprove:
		err = s.approveLocked(ctx, tx, locked, req, now)
	case domain.ClaimActionReject:
		err = s.rejectLocked(ctx, tx, locked, req, now)
	}
	if err != nil {
		return nil, fmt.Errorf("ClaimSingle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ClaimSingle: commit: %w", err)
	}

	if req.Action == domain.ClaimActionApprove && s.matcher != nil {
		if _, err := s.matcher.Rematch(ctx); err != nil {
			log.Warn("post-claim rematch failed", "claim_id", req.ClaimID, "error", err)
		}
	}

	updated, err := s.claims.GetByID(ctx, req.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("ClaimSingle: reload: %w", err)
	}

	log.Info("claim processed",
		"claim_id", req.ClaimID,
		"action", req.Action,
		"status", updated.Status.String(),
	)
	return updated, nil
}

func validateSingle(req SingleClaimRequest) error {
	if !req.Action.IsValid() {
		return fmt.Errorf("action %q: %w", req.Action, domain.ErrValidationFailed)
	}
	if strings.TrimSpace(req.Remark) == "" {
		return fmt.Errorf("remark required: %w", domain.ErrValidationFailed)
	}
	return nil
}

// approveLocked credits the customer's ledger account and writes the
// terminal status. The credit lands before the Completed status inside the
// same transaction, and the entry's (ref_type, ref_id, entry_type)
// uniqueness makes a second credit for one claim impossible.
func (s *Service) approveLocked(ctx context.Context, tx *sql.Tx, locked *domain.DepositClaim, req SingleClaimRequest, now time.Time) error {
	customerID, err := resolveCustomer(locked, req.CustomerID)
	if err != nil {
		return err
	}

	account, err := s.ledger.EnsureAccountForUpdate(ctx, tx, customerID, locked.Currency)
	if err != nil {
		return fmt.Errorf("approveLocked: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     account.ID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        locked.Amount,
		Currency:      locked.Currency,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance.Add(locked.Amount),
		RefType:       domain.EntryRefClaim,
		RefID:         locked.ID,
		CreatedAt:     now,
	}
	if err := s.ledger.CreateEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("approveLocked: credit: %w", err)
	}
	if err := s.ledger.UpdateBalance(ctx, tx, account.ID, entry.BalanceAfter, account.Version+1); err != nil {
		return fmt.Errorf("approveLocked: update balance: %w", err)
	}

	if err := s.claims.Complete(ctx, tx, locked.ID, customerID, req.Remark, req.VoucherURL, now); err != nil {
		return fmt.Errorf("approveLocked: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{"customer_id": customerID.String(), "remark": req.Remark})
	if err := s.writeTransitionEvent(ctx, tx, locked.ID, req.Actor, domain.ClaimStatusPending, domain.ClaimStatusCompleted, payload, now); err != nil {
		return fmt.Errorf("approveLocked: %w", err)
	}
	return nil
}

func (s *Service) rejectLocked(ctx context.Context, tx *sql.Tx, locked *domain.DepositClaim, req SingleClaimRequest, now time.Time) error {
	if err := s.claims.Fail(ctx, tx, locked.ID, req.Remark); err != nil {
		return fmt.Errorf("rejectLocked: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{"reason": req.Remark})
	if err := s.writeTransitionEvent(ctx, tx, locked.ID, req.Actor, domain.ClaimStatusPending, domain.ClaimStatusFailed, payload, now); err != nil {
		return fmt.Errorf("rejectLocked: %w", err)
	}
	return nil
}

// A claim that already carries a matched customer keeps it; the caller's
// customer id only fills the gap. Batches rely on this to allow mixed
// attribution.
func resolveCustomer(c *domain.DepositClaim, supplied *uuid.UUID) (uuid.UUID, error) {
	if c.CustomerID != nil {
		return *c.CustomerID, nil
	}
	if supplied != nil {
		return *supplied, nil
	}
	return uuid.Nil, domain.ErrMissingCustomer
}
