package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type ledgerService interface {
	Balances(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	Entries(ctx context.Context, customerID uuid.UUID, currency domain.Currency, pageNum, pageSize int) ([]domain.LedgerEntry, int, error)
}

type LedgerHandler struct {
	ledger ledgerService
}

func NewLedgerHandler(ledger ledgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type balanceDTO struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *LedgerHandler) Balances(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("customerID"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "customer_id", Message: "must be a UUID"}})
		return
	}

	accounts, err := h.ledger.Balances(r.Context(), customerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]balanceDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, balanceDTO{Currency: string(a.Currency), Balance: a.Balance})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type ledgerEntryDTO struct {
	ID            uuid.UUID       `json:"id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	RefType       string          `json:"ref_type"`
	RefID         uuid.UUID       `json:"ref_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (h *LedgerHandler) Entries(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("customerID"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "customer_id", Message: "must be a UUID"}})
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		RespondValidationError(w, []FieldError{{Field: "currency", Message: "required"}})
		return
	}

	pageNum, pageSize := parsePage(r)
	entries, total, err := h.ledger.Entries(r.Context(), customerID, domain.Currency(currency), pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Warn("ledger entries lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ledgerEntryDTO{
			ID:            e.ID,
			EntryType:     string(e.EntryType),
			Amount:        e.Amount,
			Currency:      string(e.Currency),
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			RefType:       string(e.RefType),
			RefID:         e.RefID,
			CreatedAt:     e.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, newPagedResponse(dtos, total, pageNum, pageSize))
}
