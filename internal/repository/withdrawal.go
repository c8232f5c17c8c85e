package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

const withdrawalColumns = `id, customer_id, currency, amount, recipient, purpose,
	status, payment_channel, payment_bank, voucher_url, approval_remark, reject_reason,
	fee_amount, fee_currency, created_at, updated_at, completed_at`

type WithdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.WithdrawalApproval) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO withdrawal_approvals (
			id, customer_id, currency, amount, recipient, purpose,
			status, payment_channel, payment_bank, voucher_url, approval_remark, reject_reason,
			fee_amount, fee_currency, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		w.ID, w.CustomerID, w.Currency, w.Amount, w.Recipient, w.Purpose,
		w.Status, w.PaymentChannel, w.PaymentBank, w.VoucherURL, w.ApprovalRemark, w.RejectReason,
		w.FeeAmount, w.FeeCurrency, w.CreatedAt, w.UpdatedAt, w.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalApproval, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_approvals WHERE id = $1`, id,
	)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (r *WithdrawalRepository) List(ctx context.Context, f domain.WithdrawalFilter, limit, offset int) ([]domain.WithdrawalApproval, int, error) {
	where := `WHERE 1=1`
	args := []any{}

	if f.Status != nil {
		args = append(args, *f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		where += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (customer_id::text ILIKE $` + n + ` OR recipient ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM withdrawal_approvals `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_approvals `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var withdrawals []domain.WithdrawalApproval
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return withdrawals, total, nil
}

// LockSubmitted moves a withdrawal from Submitted to Processing. Same
// exactly-one-winner contract as ClaimRepository.LockPending.
func (r *WithdrawalRepository) LockSubmitted(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.WithdrawalApproval, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE withdrawal_approvals SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING `+withdrawalColumns,
		domain.WithdrawalStatusProcessing, id, domain.WithdrawalStatusSubmitted,
	)
	w, err := scanWithdrawal(row)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LockSubmitted: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM withdrawal_approvals WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("LockSubmitted: exists check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("LockSubmitted: %w", domain.ErrNotFound)
	}
	return nil, fmt.Errorf("LockSubmitted: %w", domain.ErrAlreadyProcessed)
}

func (r *WithdrawalRepository) Complete(ctx context.Context, tx *sql.Tx, id uuid.UUID, channel, bank, voucherURL, remark string, fee decimal.Decimal, feeCurrency domain.Currency, completedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE withdrawal_approvals
		SET status = $1, payment_channel = $2, payment_bank = $3, voucher_url = $4,
			approval_remark = $5, fee_amount = $6, fee_currency = $7,
			completed_at = $8, updated_at = now()
		WHERE id = $9 AND status = $10`,
		domain.WithdrawalStatusCompleted, channel, bank, voucherURL,
		remark, fee, feeCurrency, completedAt, id, domain.WithdrawalStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return requireOneRow(res, "Complete")
}

func (r *WithdrawalRepository) Fail(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE withdrawal_approvals SET status = $1, reject_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		domain.WithdrawalStatusFailed, reason, id, domain.WithdrawalStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("Fail: %w", err)
	}
	return requireOneRow(res, "Fail")
}

// Cancel is the customer-initiated transition out of Submitted. It shares
// the conditional-update guard so a cancel can never race an approval.
func (r *WithdrawalRepository) Cancel(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE withdrawal_approvals SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		domain.WithdrawalStatusCancelled, id, domain.WithdrawalStatusSubmitted,
	)
	if err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	return requireOneRow(res, "Cancel")
}

func scanWithdrawal(s scanner) (*domain.WithdrawalApproval, error) {
	var w domain.WithdrawalApproval
	var fee decimal.NullDecimal
	var feeCurrency *string

	err := s.Scan(
		&w.ID, &w.CustomerID, &w.Currency, &w.Amount, &w.Recipient, &w.Purpose,
		&w.Status, &w.PaymentChannel, &w.PaymentBank, &w.VoucherURL, &w.ApprovalRemark, &w.RejectReason,
		&fee, &feeCurrency, &w.CreatedAt, &w.UpdatedAt, &w.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if fee.Valid {
		w.FeeAmount = &fee.Decimal
	}
	if feeCurrency != nil {
		c := domain.Currency(*feeCurrency)
		w.FeeCurrency = &c
	}
	return &w, nil
}
