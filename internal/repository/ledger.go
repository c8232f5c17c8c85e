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

const accountColumns = `id, customer_id, currency, balance, version, created_at`

const ledgerColumns = `id, account_id, entry_type, amount, currency,
	balance_before, balance_after, ref_type, ref_id, created_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// EnsureAccountForUpdate returns the customer's account in the given
// currency locked for the duration of the transaction, creating it with a
// zero balance if it does not exist yet.
func (r *LedgerRepository) EnsureAccountForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, customer_id, currency, balance, version, created_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (customer_id, currency) DO NOTHING`,
		uuid.New(), customerID, currency,
	)
	if err != nil {
		return nil, fmt.Errorf("EnsureAccountForUpdate: insert: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE customer_id = $1 AND currency = $2 FOR UPDATE`,
		customerID, currency,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("EnsureAccountForUpdate: %w", err)
	}
	return a, nil
}

func (r *LedgerRepository) GetAccountForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE customer_id = $1 AND currency = $2 FOR UPDATE`,
		customerID, currency,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccountForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccountForUpdate: %w", err)
	}
	return a, nil
}

func (r *LedgerRepository) GetAccount(ctx context.Context, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1 AND currency = $2`,
		customerID, currency,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccount: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (r *LedgerRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrAlreadyProcessed)
	}
	return nil
}

// AvailableBalance is a live read, never served from a cache.
func (r *LedgerRepository) AvailableBalance(ctx context.Context, customerID uuid.UUID, currency domain.Currency) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE customer_id = $1 AND currency = $2`,
		customerID, currency,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("AvailableBalance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) GetAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1 ORDER BY currency`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAccountsByCustomer: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetAccountsByCustomer: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAccountsByCustomer: rows: %w", err)
	}
	return accounts, nil
}

func (r *LedgerRepository) CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, account_id, entry_type, amount, currency,
			balance_before, balance_after, ref_type, ref_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.AccountID, entry.EntryType, entry.Amount, entry.Currency,
		entry.BalanceBefore, entry.BalanceAfter, entry.RefType, entry.RefID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateEntry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) EntriesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("EntriesByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("EntriesByAccount: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("EntriesByAccount: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("EntriesByAccount: rows: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) EntriesByRef(ctx context.Context, refType domain.EntryRefType, refID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE ref_type = $1 AND ref_id = $2 ORDER BY created_at`,
		refType, refID,
	)
	if err != nil {
		return nil, fmt.Errorf("EntriesByRef: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("EntriesByRef: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("EntriesByRef: rows: %w", err)
	}
	return entries, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.CustomerID, &a.Currency, &a.Balance, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.AccountID, &e.EntryType, &e.Amount, &e.Currency,
		&e.BalanceBefore, &e.BalanceAfter, &e.RefType, &e.RefID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
