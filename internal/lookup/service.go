package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type registryRepo interface {
	Channels(ctx context.Context) ([]domain.PaymentChannel, error)
	Banks(ctx context.Context) ([]domain.Bank, error)
	BankAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.BankAccount, error)
	IsWhitelisted(ctx context.Context, customerID uuid.UUID, accountNumber string) (bool, error)
	FeeForCurrency(ctx context.Context, currency domain.Currency) (decimal.Decimal, error)
}

// Service fronts the reference-data registry: payment channels, banks, the
// per-customer payout whitelist and the outbound fee schedule.
type Service struct {
	repo registryRepo
}

func NewService(repo registryRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Channels(ctx context.Context) ([]domain.PaymentChannel, error) {
	channels, err := s.repo.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("Channels: %w", err)
	}
	return channels, nil
}

func (s *Service) Banks(ctx context.Context) ([]domain.Bank, error) {
	banks, err := s.repo.Banks(ctx)
	if err != nil {
		return nil, fmt.Errorf("Banks: %w", err)
	}
	return banks, nil
}

func (s *Service) BankAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.BankAccount, error) {
	accounts, err := s.repo.BankAccounts(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("BankAccounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) IsWhitelisted(ctx context.Context, customerID uuid.UUID, accountNumber string) (bool, error) {
	ok, err := s.repo.IsWhitelisted(ctx, customerID, accountNumber)
	if err != nil {
		return false, fmt.Errorf("IsWhitelisted: %w", err)
	}
	return ok, nil
}

// QuoteOutCashFee returns the current outbound fee for the currency. The
// quote is stamped with its currency; approval re-checks that stamp against
// the withdrawal's currency.
func (s *Service) QuoteOutCashFee(ctx context.Context, currency domain.Currency) (*domain.FeeQuote, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("QuoteOutCashFee: %q: %w", currency, domain.ErrInvalidCurrency)
	}

	fee, err := s.repo.FeeForCurrency(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("QuoteOutCashFee: %w", err)
	}

	return &domain.FeeQuote{
		Currency: currency,
		Fee:      fee,
		QuotedAt: time.Now().UTC(),
	}, nil
}
