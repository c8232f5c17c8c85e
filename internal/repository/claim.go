package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

const claimColumns = `id, reference_no, channel, currency, amount, account_holder_name,
	status, match_status, customer_id, remark, voucher_url,
	created_at, updated_at, completed_at`

type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.DepositClaim) error {
	_, err := tx.ExecContext(ctx,
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
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositClaim, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM deposit_claims WHERE id = $1`, id,
	)
	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// List applies the filter and returns one page plus the total row count.
func (r *ClaimRepository) List(ctx context.Context, f domain.ClaimFilter, limit, offset int) ([]domain.DepositClaim, int, error) {
	where := `WHERE 1=1`
	args := []any{}

	if f.Status != nil {
		args = append(args, *f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.MatchStatus != nil {
		args = append(args, *f.MatchStatus)
		where += ` AND match_status = $` + strconv.Itoa(len(args))
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
		where += ` AND (reference_no ILIKE $` + n +
			` OR account_holder_name ILIKE $` + n +
			` OR remark ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deposit_claims `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM deposit_claims `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var claims []domain.DepositClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return claims, total, nil
}

// LockPending moves a claim from Pending to Processing, claiming the row for
// this transaction. Exactly one concurrent caller wins; the rest get
// ErrAlreadyProcessed (or ErrNotFound if the id does not exist).
func (r *ClaimRepository) LockPending(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.DepositClaim, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE deposit_claims SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING `+claimColumns,
		domain.ClaimStatusProcessing, id, domain.ClaimStatusPending,
	)
	c, err := scanClaim(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LockPending: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM deposit_claims WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("LockPending: exists check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("LockPending: %w", domain.ErrNotFound)
	}
	return nil, fmt.Errorf("LockPending: %w", domain.ErrAlreadyProcessed)
}

func (r *ClaimRepository) Complete(ctx context.Context, tx *sql.Tx, id, customerID uuid.UUID, remark string, voucherURL *string, completedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE deposit_claims
		SET status = $1, match_status = $2, customer_id = $3, remark = $4,
			voucher_url = COALESCE($5, voucher_url), completed_at = $6, updated_at = now()
		WHERE id = $7 AND status = $8`,
		domain.ClaimStatusCompleted, domain.MatchStatusMatched, customerID, remark,
		voucherURL, completedAt, id, domain.ClaimStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return requireOneRow(res, "Complete")
}

func (r *ClaimRepository) Fail(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE deposit_claims SET status = $1, remark = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		domain.ClaimStatusFailed, reason, id, domain.ClaimStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("Fail: %w", err)
	}
	return requireOneRow(res, "Fail")
}

func requireOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyProcessed)
	}
	return nil
}

func scanClaim(s scanner) (*domain.DepositClaim, error) {
	var c domain.DepositClaim
	var customerID uuid.NullUUID

	err := s.Scan(
		&c.ID, &c.ReferenceNo, &c.Channel, &c.Currency, &c.Amount, &c.AccountHolderName,
		&c.Status, &c.MatchStatus, &customerID, &c.Remark, &c.VoucherURL,
		&c.CreatedAt, &c.UpdatedAt, &c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		c.CustomerID = &customerID.UUID
	}
	return &c, nil
}
