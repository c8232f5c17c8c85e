package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type ledgerRepo interface {
	GetAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	EntriesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	GetAccount(ctx context.Context, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error)
}

// Service is the read side of the ledger. All writes happen inside the claim
// and withdrawal engines; this service only reports.
type Service struct {
	ledger ledgerRepo
}

func NewService(ledger ledgerRepo) *Service {
	return &Service{ledger: ledger}
}

func (s *Service) Balances(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.ledger.GetAccountsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("Balances: %w", err)
	}
	return accounts, nil
}

func (s *Service) Entries(ctx context.Context, customerID uuid.UUID, currency domain.Currency, pageNum, pageSize int) ([]domain.LedgerEntry, int, error) {
	if !currency.IsValid() {
		return nil, 0, fmt.Errorf("Entries: currency %q: %w", currency, domain.ErrInvalidCurrency)
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}

	account, err := s.ledger.GetAccount(ctx, customerID, currency)
	if err != nil {
		return nil, 0, fmt.Errorf("Entries: %w", err)
	}

	entries, total, err := s.ledger.EntriesByAccount(ctx, account.ID, pageSize, (pageNum-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("Entries: %w", err)
	}
	return entries, total, nil
}
