package withdrawal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type ApproveRequest struct {
	ID             uuid.UUID
	PaymentChannel string
	PaymentBank    string
	VoucherURL     string
	Remark         string
	// FeeQuote fields as presented to the operator. The quote's currency must
	// still match the withdrawal's currency at approval time.
	FeeQuoteCurrency domain.Currency
	FeeQuoteAmount   decimal.Decimal
	Actor            uuid.UUID
}

// Approve releases a submitted withdrawal: it re-validates the payout
// destination against the customer's whitelist, checks the live balance,
// debits the ledger and writes the terminal status, all in one transaction
// guarded by the Submitted -> Processing conditional update.
func (s *Service) Approve(ctx context.Context, req ApproveRequest) (*domain.WithdrawalApproval, error) {
	log := logging.FromContext(ctx)

	if err := validateApprove(req); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Approve: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.withdrawals.LockSubmitted(ctx, tx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	// Quote computed for another currency must never be charged here.
	if req.FeeQuoteCurrency != locked.Currency {
		return nil, fmt.Errorf("Approve: quote %s vs withdrawal %s: %w",
			req.FeeQuoteCurrency, locked.Currency, domain.ErrStaleFeeQuote)
	}

	whitelisted, err := s.whitelist.IsWhitelisted(ctx, locked.CustomerID, locked.Recipient)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	if !whitelisted {
		return nil, fmt.Errorf("Approve: recipient %q: %w", locked.Recipient, domain.ErrNotWhitelisted)
	}

	account, err := s.ledger.GetAccountForUpdate(ctx, tx, locked.CustomerID, locked.Currency)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("Approve: no %s account: %w", locked.Currency, domain.ErrInsufficientBalance)
		}
		return nil, fmt.Errorf("Approve: %w", err)
	}
	if account.Balance.LessThan(locked.Amount) {
		return nil, fmt.Errorf("Approve: balance %s < amount %s: %w",
			account.Balance, locked.Amount, domain.ErrInsufficientBalance)
	}

	now := time.Now().UTC()

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     account.ID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        locked.Amount,
		Currency:      locked.Currency,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance.Sub(locked.Amount),
		RefType:       domain.EntryRefWithdrawal,
		RefID:         locked.ID,
		CreatedAt:     now,
	}
	if err := s.ledger.CreateEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Approve: debit: %w", err)
	}
	if err := s.ledger.UpdateBalance(ctx, tx, account.ID, entry.BalanceAfter, account.Version+1); err != nil {
		return nil, fmt.Errorf("Approve: update balance: %w", err)
	}

	if err := s.withdrawals.Complete(ctx, tx, locked.ID,
		req.PaymentChannel, req.PaymentBank, req.VoucherURL, req.Remark,
		req.FeeQuoteAmount, req.FeeQuoteCurrency, now,
	); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"payment_channel": req.PaymentChannel,
		"payment_bank":    req.PaymentBank,
		"fee":             req.FeeQuoteAmount.String(),
		"remark":          req.Remark,
	})
	actor := fmt.Sprintf("operator:%s", req.Actor)
	if err := s.writeTransitionEvent(ctx, tx, locked.ID, actor,
		domain.WithdrawalStatusSubmitted, domain.WithdrawalStatusCompleted, payload, now); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Approve: commit: %w", err)
	}

	updated, err := s.withdrawals.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("Approve: reload: %w", err)
	}

	log.Info("withdrawal approved",
		"withdrawal_id", req.ID,
		"customer_id", locked.CustomerID,
		"amount", locked.Amount,
		"currency", locked.Currency,
		"fee", req.FeeQuoteAmount,
	)
	return updated, nil
}

// Approval evidence is all-or-nothing: channel, bank, voucher and remark
// must be present together.
func validateApprove(req ApproveRequest) error {
	if strings.TrimSpace(req.PaymentChannel) == "" {
		return fmt.Errorf("payment channel required: %w", domain.ErrValidationFailed)
	}
	if strings.TrimSpace(req.PaymentBank) == "" {
		return fmt.Errorf("payment bank required: %w", domain.ErrValidationFailed)
	}
	if strings.TrimSpace(req.VoucherURL) == "" {
		return fmt.Errorf("voucher required: %w", domain.ErrValidationFailed)
	}
	if strings.TrimSpace(req.Remark) == "" {
		return fmt.Errorf("approval remark required: %w", domain.ErrValidationFailed)
	}
	if !req.FeeQuoteCurrency.IsValid() {
		return fmt.Errorf("fee quote currency: %w", domain.ErrInvalidCurrency)
	}
	if req.FeeQuoteAmount.IsNegative() {
		return fmt.Errorf("fee quote amount: %w", domain.ErrInvalidAmount)
	}
	return nil
}
