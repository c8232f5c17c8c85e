package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type stubRegistry struct {
	fees map[domain.Currency]decimal.Decimal
}

func (s *stubRegistry) Channels(ctx context.Context) ([]domain.PaymentChannel, error) {
	return []domain.PaymentChannel{{Code: "wire", Name: "Wire Transfer"}}, nil
}

func (s *stubRegistry) Banks(ctx context.Context) ([]domain.Bank, error) {
	return []domain.Bank{{Code: "HSBC", Name: "HSBC"}}, nil
}

func (s *stubRegistry) BankAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.BankAccount, error) {
	return nil, nil
}

func (s *stubRegistry) IsWhitelisted(ctx context.Context, customerID uuid.UUID, accountNumber string) (bool, error) {
	return false, nil
}

func (s *stubRegistry) FeeForCurrency(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	fee, ok := s.fees[currency]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return fee, nil
}

func TestQuoteOutCashFee(t *testing.T) {
	svc := NewService(&stubRegistry{
		fees: map[domain.Currency]decimal.Decimal{
			domain.CurrencyUSD: decimal.RequireFromString("15.00"),
		},
	})
	ctx := context.Background()

	t.Run("quote carries currency and timestamp", func(t *testing.T) {
		before := time.Now().UTC()
		quote, err := svc.QuoteOutCashFee(ctx, domain.CurrencyUSD)

		require.NoError(t, err)
		assert.Equal(t, domain.CurrencyUSD, quote.Currency)
		assert.True(t, quote.Fee.Equal(decimal.RequireFromString("15.00")))
		assert.False(t, quote.QuotedAt.Before(before))
	})

	t.Run("invalid currency", func(t *testing.T) {
		_, err := svc.QuoteOutCashFee(ctx, domain.Currency("XYZ"))
		require.ErrorIs(t, err, domain.ErrInvalidCurrency)
	})

	t.Run("unknown fee schedule", func(t *testing.T) {
		_, err := svc.QuoteOutCashFee(ctx, domain.CurrencyGBP)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
