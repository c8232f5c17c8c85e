package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type LookupRepository struct {
	db *sql.DB
}

func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

func (r *LookupRepository) Channels(ctx context.Context) ([]domain.PaymentChannel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name FROM payment_channels ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("Channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.PaymentChannel
	for rows.Next() {
		var c domain.PaymentChannel
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("Channels: scan: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Channels: rows: %w", err)
	}
	return channels, nil
}

func (r *LookupRepository) Banks(ctx context.Context) ([]domain.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name FROM banks ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("Banks: %w", err)
	}
	defer rows.Close()

	var banks []domain.Bank
	for rows.Next() {
		var b domain.Bank
		if err := rows.Scan(&b.Code, &b.Name); err != nil {
			return nil, fmt.Errorf("Banks: scan: %w", err)
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Banks: rows: %w", err)
	}
	return banks, nil
}

func (r *LookupRepository) BankAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, bank_code, account_number, holder_name, created_at
		FROM bank_account_whitelist WHERE customer_id = $1 ORDER BY created_at`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("BankAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.BankAccount
	for rows.Next() {
		var a domain.BankAccount
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.BankCode, &a.AccountNumber, &a.HolderName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("BankAccounts: scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("BankAccounts: rows: %w", err)
	}
	return accounts, nil
}

func (r *LookupRepository) IsWhitelisted(ctx context.Context, customerID uuid.UUID, accountNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bank_account_whitelist
			WHERE customer_id = $1 AND account_number = $2
		)`,
		customerID, accountNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsWhitelisted: %w", err)
	}
	return exists, nil
}

func (r *LookupRepository) FeeForCurrency(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	var fee decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT fee FROM out_cash_fees WHERE currency = $1`, currency,
	).Scan(&fee)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("FeeForCurrency: %w", domain.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("FeeForCurrency: %w", err)
	}
	return fee, nil
}
