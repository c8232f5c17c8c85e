package recon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
	"github.com/fiatops/custody-backoffice/internal/repository"
)

type ImportSummary struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Matched  int `json:"matched"`
}

// ImportStatements ingests a batch of bank-statement lines. Each credit line
// also opens a pending deposit claim so the back office can attribute it.
// Lines whose reference number was already ingested are skipped, which makes
// re-importing the same statement file safe. A rematch pass runs at the end.
func (s *Service) ImportStatements(ctx context.Context, lines []domain.StatementLine) (*ImportSummary, error) {
	log := logging.FromContext(ctx)

	if len(lines) == 0 {
		return nil, fmt.Errorf("ImportStatements: empty batch: %w", domain.ErrValidationFailed)
	}

	summary := &ImportSummary{}
	for i, line := range lines {
		if err := validateLine(line); err != nil {
			return nil, fmt.Errorf("ImportStatements: line %d: %w", i, err)
		}

		created, err := s.ingestLine(ctx, line)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				summary.Skipped++
				continue
			}
			return nil, fmt.Errorf("ImportStatements: line %d: %w", i, err)
		}
		if created {
			summary.Ingested++
		}
	}

	matched, err := s.Rematch(ctx)
	if err != nil {
		log.Warn("post-import rematch failed", "error", err)
	}
	summary.Matched = matched

	log.Info("statement batch imported",
		"lines", len(lines),
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"matched", summary.Matched,
	)
	return summary, nil
}

func (s *Service) ingestLine(ctx context.Context, line domain.StatementLine) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	refNo := strings.TrimSpace(line.ReferenceNo)
	now := line.ValueDate
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec := &domain.ReconciliationRecord{
		ID:          uuid.New(),
		Currency:    line.Currency,
		Amount:      line.Amount,
		Type:        line.Type,
		ReferenceNo: &refNo,
		MatchStatus: domain.MatchStatusUnmatched,
		CreatedAt:   now,
	}
	if line.Remark != "" {
		rec.Remark = &line.Remark
	}
	if err := s.records.Create(ctx, tx, rec); err != nil {
		return false, err
	}

	// Debits on the statement are our own payouts; only credits can be
	// claimed by a customer.
	if line.Type == domain.RecordTypeCredit {
		claim := &domain.DepositClaim{
			ID:                uuid.New(),
			ReferenceNo:       &refNo,
			Channel:           line.Channel,
			Currency:          line.Currency,
			Amount:            line.Amount,
			AccountHolderName: line.AccountHolderName,
			Status:            domain.ClaimStatusPending,
			MatchStatus:       domain.MatchStatusUnmatched,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.claims.Create(ctx, tx, claim); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func validateLine(line domain.StatementLine) error {
	if strings.TrimSpace(line.ReferenceNo) == "" {
		return fmt.Errorf("reference number required: %w", domain.ErrValidationFailed)
	}
	if !line.Currency.IsValid() {
		return fmt.Errorf("currency %q: %w", line.Currency, domain.ErrInvalidCurrency)
	}
	if !line.Amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", line.Amount, domain.ErrInvalidAmount)
	}
	if !line.Type.IsValid() {
		return fmt.Errorf("record type %q: %w", line.Type, domain.ErrValidationFailed)
	}
	if line.Type == domain.RecordTypeCredit {
		if !line.Channel.IsValid() {
			return fmt.Errorf("channel %q: %w", line.Channel, domain.ErrValidationFailed)
		}
		if strings.TrimSpace(line.AccountHolderName) == "" {
			return fmt.Errorf("account holder name required: %w", domain.ErrValidationFailed)
		}
	}
	return nil
}
