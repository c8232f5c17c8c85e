package withdrawal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// Reject declines a submitted withdrawal. The reason is mandatory and
// persisted verbatim; the ledger is untouched.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*domain.WithdrawalApproval, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("Reject: reason required: %w", domain.ErrValidationFailed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Reject: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.withdrawals.LockSubmitted(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	now := time.Now().UTC()
	if err := s.withdrawals.Fail(ctx, tx, locked.ID, reason); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{"reason": reason})
	actorStr := fmt.Sprintf("operator:%s", actor)
	if err := s.writeTransitionEvent(ctx, tx, locked.ID, actorStr,
		domain.WithdrawalStatusSubmitted, domain.WithdrawalStatusFailed, payload, now); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Reject: commit: %w", err)
	}

	updated, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Reject: reload: %w", err)
	}

	log.Info("withdrawal rejected", "withdrawal_id", id, "reason", reason)
	return updated, nil
}

// Cancel is the customer-initiated exit from Submitted. It shares the
// conditional-update guard with Approve and Reject, so a cancel can never
// race a concurrent approval into a double transition.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor string) (*domain.WithdrawalApproval, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Cancel: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.withdrawals.Cancel(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	now := time.Now().UTC()
	if err := s.writeTransitionEvent(ctx, tx, id, actor,
		domain.WithdrawalStatusSubmitted, domain.WithdrawalStatusCancelled, nil, now); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Cancel: commit: %w", err)
	}

	updated, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Cancel: reload: %w", err)
	}

	log.Info("withdrawal cancelled", "withdrawal_id", id)
	return updated, nil
}
