package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type lookupService interface {
	Channels(ctx context.Context) ([]domain.PaymentChannel, error)
	Banks(ctx context.Context) ([]domain.Bank, error)
	BankAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.BankAccount, error)
	QuoteOutCashFee(ctx context.Context, currency domain.Currency) (*domain.FeeQuote, error)
}

type LookupHandler struct {
	lookups lookupService
}

func NewLookupHandler(lookups lookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

type codeNameDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *LookupHandler) Channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.lookups.Channels(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("channel lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]codeNameDTO, 0, len(channels))
	for _, c := range channels {
		dtos = append(dtos, codeNameDTO{Code: c.Code, Name: c.Name})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LookupHandler) Banks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.lookups.Banks(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]codeNameDTO, 0, len(banks))
	for _, b := range banks {
		dtos = append(dtos, codeNameDTO{Code: b.Code, Name: b.Name})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type bankAccountDTO struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	BankCode      string    `json:"bank_code"`
	AccountNumber string    `json:"account_number"`
	HolderName    string    `json:"holder_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *LookupHandler) BankAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.URL.Query().Get("customer_id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "customer_id", Message: "must be a UUID"}})
		return
	}

	accounts, err := h.lookups.BankAccounts(r.Context(), customerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank account lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]bankAccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, bankAccountDTO{
			ID:            a.ID,
			CustomerID:    a.CustomerID,
			BankCode:      a.BankCode,
			AccountNumber: a.AccountNumber,
			HolderName:    a.HolderName,
			CreatedAt:     a.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LookupHandler) OutCashFee(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		RespondValidationError(w, []FieldError{{Field: "currency", Message: "required"}})
		return
	}

	quote, err := h.lookups.QuoteOutCashFee(r.Context(), domain.Currency(currency))
	if err != nil {
		logging.FromContext(r.Context()).Warn("fee quote failed", "currency", currency, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, quote)
}
