package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/auth"
	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
	"github.com/fiatops/custody-backoffice/internal/service/withdrawal"
)

type withdrawalService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalApproval, error)
	ListApprovals(ctx context.Context, f domain.WithdrawalFilter, pageNum, pageSize int) ([]domain.WithdrawalApproval, int, error)
	Approve(ctx context.Context, req withdrawal.ApproveRequest) (*domain.WithdrawalApproval, error)
	Reject(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*domain.WithdrawalApproval, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) (*domain.WithdrawalApproval, error)
}

type WithdrawalHandler struct {
	withdrawals withdrawalService
}

func NewWithdrawalHandler(withdrawals withdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

type withdrawalActionRequest struct {
	WithdrawalID   string `json:"withdrawal_id"`
	Action         string `json:"action"`
	PaymentChannel string `json:"payment_channel,omitempty"`
	PaymentBank    string `json:"payment_bank,omitempty"`
	VoucherURL     string `json:"voucher_url,omitempty"`
	Remark         string `json:"remark,omitempty"`
	// Fee quote as shown to the operator when they confirmed the approval.
	FeeQuoteCurrency string          `json:"fee_quote_currency,omitempty"`
	FeeQuoteAmount   decimal.Decimal `json:"fee_quote_amount,omitempty"`
	RejectReason     string          `json:"reject_reason,omitempty"`
}

func (r withdrawalActionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WithdrawalID == "" {
		errs = append(errs, FieldError{Field: "withdrawal_id", Message: "required"})
	} else if _, err := uuid.Parse(r.WithdrawalID); err != nil {
		errs = append(errs, FieldError{Field: "withdrawal_id", Message: "must be a UUID"})
	}

	switch domain.WithdrawalAction(r.Action) {
	case domain.WithdrawalActionApprove:
		if r.PaymentChannel == "" {
			errs = append(errs, FieldError{Field: "payment_channel", Message: "required"})
		}
		if r.PaymentBank == "" {
			errs = append(errs, FieldError{Field: "payment_bank", Message: "required"})
		}
		if r.VoucherURL == "" {
			errs = append(errs, FieldError{Field: "voucher_url", Message: "required"})
		}
		if r.Remark == "" {
			errs = append(errs, FieldError{Field: "remark", Message: "required"})
		}
		if !domain.Currency(r.FeeQuoteCurrency).IsValid() {
			errs = append(errs, FieldError{Field: "fee_quote_currency", Message: "must be a supported currency"})
		}
		if r.FeeQuoteAmount.IsNegative() {
			errs = append(errs, FieldError{Field: "fee_quote_amount", Message: "must not be negative"})
		}
	case domain.WithdrawalActionReject:
		if r.RejectReason == "" {
			errs = append(errs, FieldError{Field: "reject_reason", Message: "required"})
		}
	default:
		errs = append(errs, FieldError{Field: "action", Message: "must be approve or reject"})
	}

	return errs
}

type withdrawalDTO struct {
	ID             uuid.UUID        `json:"id"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	Currency       string           `json:"currency"`
	Amount         decimal.Decimal  `json:"amount"`
	Recipient      string           `json:"recipient"`
	Purpose        string           `json:"purpose"`
	Status         int              `json:"status"`
	PaymentChannel *string          `json:"payment_channel,omitempty"`
	PaymentBank    *string          `json:"payment_bank,omitempty"`
	VoucherURL     *string          `json:"voucher_url,omitempty"`
	ApprovalRemark *string          `json:"approval_remark,omitempty"`
	RejectReason   *string          `json:"reject_reason,omitempty"`
	FeeAmount      *decimal.Decimal `json:"fee_amount,omitempty"`
	FeeCurrency    *string          `json:"fee_currency,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

func toWithdrawalDTO(wd *domain.WithdrawalApproval) withdrawalDTO {
	dto := withdrawalDTO{
		ID:             wd.ID,
		CustomerID:     wd.CustomerID,
		Currency:       string(wd.Currency),
		Amount:         wd.Amount,
		Recipient:      wd.Recipient,
		Purpose:        wd.Purpose,
		Status:         int(wd.Status),
		PaymentChannel: wd.PaymentChannel,
		PaymentBank:    wd.PaymentBank,
		VoucherURL:     wd.VoucherURL,
		ApprovalRemark: wd.ApprovalRemark,
		RejectReason:   wd.RejectReason,
		FeeAmount:      wd.FeeAmount,
		CreatedAt:      wd.CreatedAt,
		UpdatedAt:      wd.UpdatedAt,
		CompletedAt:    wd.CompletedAt,
	}
	if wd.FeeCurrency != nil {
		c := string(*wd.FeeCurrency)
		dto.FeeCurrency = &c
	}
	return dto
}

func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	var f domain.WithdrawalFilter

	if v, ok, err := parseIntParam(r, "status"); err != nil {
		RespondAppError(w, ErrInvalidStatus, nil)
		return
	} else if ok {
		status := domain.WithdrawalStatus(v)
		if !status.IsValid() {
			RespondAppError(w, ErrInvalidStatus, nil)
			return
		}
		f.Status = &status
	}

	start, err := parseTimeParam(r, "start_time")
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "start_time", Message: "must be RFC 3339"}})
		return
	}
	end, err := parseTimeParam(r, "end_time")
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "end_time", Message: "must be RFC 3339"}})
		return
	}
	f.StartTime, f.EndTime = start, end
	f.Keyword = r.URL.Query().Get("keyword")

	pageNum, pageSize := parsePage(r)
	withdrawals, total, err := h.withdrawals.ListApprovals(r.Context(), f, pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]withdrawalDTO, 0, len(withdrawals))
	for i := range withdrawals {
		dtos = append(dtos, toWithdrawalDTO(&withdrawals[i]))
	}
	RespondSuccess(w, http.StatusOK, newPagedResponse(dtos, total, pageNum, pageSize))
}

func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	wd, err := h.withdrawals.GetByID(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toWithdrawalDTO(wd))
}

func (h *WithdrawalHandler) Action(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	operatorID, ok := auth.OperatorIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req withdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	id, _ := uuid.Parse(req.WithdrawalID)

	var (
		wd  *domain.WithdrawalApproval
		err error
	)
	switch domain.WithdrawalAction(req.Action) {
	case domain.WithdrawalActionApprove:
		wd, err = h.withdrawals.Approve(r.Context(), withdrawal.ApproveRequest{
			ID:               id,
			PaymentChannel:   req.PaymentChannel,
			PaymentBank:      req.PaymentBank,
			VoucherURL:       req.VoucherURL,
			Remark:           req.Remark,
			FeeQuoteCurrency: domain.Currency(req.FeeQuoteCurrency),
			FeeQuoteAmount:   req.FeeQuoteAmount,
			Actor:            operatorID,
		})
	case domain.WithdrawalActionReject:
		wd, err = h.withdrawals.Reject(r.Context(), id, req.RejectReason, operatorID)
	}
	if err != nil {
		log.Warn("withdrawal action failed", "withdrawal_id", req.WithdrawalID, "action", req.Action, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toWithdrawalDTO(wd))
}

type cancelWithdrawalRequest struct {
	CustomerID string `json:"customer_id"`
}

// Cancel is the customer-facing exit from Submitted; it carries no operator
// token.
func (h *WithdrawalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req cancelWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "customer_id", Message: "must be a UUID"}})
		return
	}

	wd, err := h.withdrawals.Cancel(r.Context(), id, "customer:"+customerID.String())
	if err != nil {
		log.Warn("withdrawal cancel failed", "withdrawal_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toWithdrawalDTO(wd))
}
