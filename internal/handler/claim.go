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
	"github.com/fiatops/custody-backoffice/internal/service/claim"
)

type claimService interface {
	GetClaimByID(ctx context.Context, id uuid.UUID) (*domain.DepositClaim, error)
	ListClaims(ctx context.Context, f domain.ClaimFilter, pageNum, pageSize int) ([]domain.DepositClaim, int, error)
	ClaimSingle(ctx context.Context, req claim.SingleClaimRequest) (*domain.DepositClaim, error)
	ClaimBatch(ctx context.Context, req claim.BatchClaimRequest) (*domain.BatchClaimResult, error)
}

type ClaimHandler struct {
	claims claimService
}

func NewClaimHandler(claims claimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

type claimActionRequest struct {
	ClaimID    string  `json:"claim_id"`
	Action     string  `json:"action"`
	CustomerID *string `json:"customer_id,omitempty"`
	Remark     string  `json:"remark"`
	VoucherURL *string `json:"voucher_url,omitempty"`
}

func (r claimActionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.ClaimID == "" {
		errs = append(errs, FieldError{Field: "claim_id", Message: "required"})
	} else if _, err := uuid.Parse(r.ClaimID); err != nil {
		errs = append(errs, FieldError{Field: "claim_id", Message: "must be a UUID"})
	}

	if !domain.ClaimAction(r.Action).IsValid() {
		errs = append(errs, FieldError{Field: "action", Message: "must be approve or reject"})
	}

	if r.Remark == "" {
		errs = append(errs, FieldError{Field: "remark", Message: "required"})
	}

	if r.CustomerID != nil {
		if _, err := uuid.Parse(*r.CustomerID); err != nil {
			errs = append(errs, FieldError{Field: "customer_id", Message: "must be a UUID"})
		}
	}

	return errs
}

type batchClaimRequest struct {
	ClaimIDs   []string `json:"claim_ids"`
	CustomerID string   `json:"customer_id"`
	Remark     string   `json:"remark"`
}

func (r batchClaimRequest) Validate() []FieldError {
	var errs []FieldError

	if len(r.ClaimIDs) == 0 {
		errs = append(errs, FieldError{Field: "claim_ids", Message: "required"})
	}
	for _, id := range r.ClaimIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, FieldError{Field: "claim_ids", Message: "must all be UUIDs"})
			break
		}
	}

	if r.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "required"})
	} else if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a UUID"})
	}

	if r.Remark == "" {
		errs = append(errs, FieldError{Field: "remark", Message: "required"})
	}

	return errs
}

type claimDTO struct {
	ID                uuid.UUID       `json:"id"`
	ReferenceNo       *string         `json:"reference_no"`
	Channel           string          `json:"channel"`
	Currency          string          `json:"currency"`
	Amount            decimal.Decimal `json:"amount"`
	AccountHolderName string          `json:"account_holder_name"`
	Status            int             `json:"status"`
	MatchStatus       int             `json:"match_status"`
	CustomerID        *uuid.UUID      `json:"customer_id"`
	Remark            *string         `json:"remark,omitempty"`
	VoucherURL        *string         `json:"voucher_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func toClaimDTO(c *domain.DepositClaim) claimDTO {
	return claimDTO{
		ID:                c.ID,
		ReferenceNo:       c.ReferenceNo,
		Channel:           string(c.Channel),
		Currency:          string(c.Currency),
		Amount:            c.Amount,
		AccountHolderName: c.AccountHolderName,
		Status:            int(c.Status),
		MatchStatus:       int(c.MatchStatus),
		CustomerID:        c.CustomerID,
		Remark:            c.Remark,
		VoucherURL:        c.VoucherURL,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		CompletedAt:       c.CompletedAt,
	}
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	var f domain.ClaimFilter

	if v, ok, err := parseIntParam(r, "status"); err != nil {
		RespondAppError(w, ErrInvalidStatus, nil)
		return
	} else if ok {
		status := domain.ClaimStatus(v)
		if !status.IsValid() {
			RespondAppError(w, ErrInvalidStatus, nil)
			return
		}
		f.Status = &status
	}

	if v, ok, err := parseIntParam(r, "match_status"); err != nil {
		RespondAppError(w, ErrInvalidStatus, nil)
		return
	} else if ok {
		ms := domain.MatchStatus(v)
		if !ms.IsValid() {
			RespondAppError(w, ErrInvalidStatus, nil)
			return
		}
		f.MatchStatus = &ms
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
	claims, total, err := h.claims.ListClaims(r.Context(), f, pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Warn("claim list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]claimDTO, 0, len(claims))
	for i := range claims {
		dtos = append(dtos, toClaimDTO(&claims[i]))
	}
	RespondSuccess(w, http.StatusOK, newPagedResponse(dtos, total, pageNum, pageSize))
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	c, err := h.claims.GetClaimByID(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("claim lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClaimDTO(c))
}

func (h *ClaimHandler) Action(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	operatorID, ok := auth.OperatorIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req claimActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	claimID, _ := uuid.Parse(req.ClaimID)
	svcReq := claim.SingleClaimRequest{
		ClaimID:    claimID,
		Action:     domain.ClaimAction(req.Action),
		Remark:     req.Remark,
		VoucherURL: req.VoucherURL,
		Actor:      operatorID,
	}
	if req.CustomerID != nil {
		customerID, _ := uuid.Parse(*req.CustomerID)
		svcReq.CustomerID = &customerID
	}

	c, err := h.claims.ClaimSingle(r.Context(), svcReq)
	if err != nil {
		log.Warn("claim action failed", "claim_id", req.ClaimID, "action", req.Action, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClaimDTO(c))
}

type batchClaimResultDTO struct {
	Succeeded []uuid.UUID       `json:"succeeded"`
	Failed    []batchFailureDTO `json:"failed"`
}

type batchFailureDTO struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

func (h *ClaimHandler) BatchAction(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	operatorID, ok := auth.OperatorIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req batchClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ClaimIDs))
	for _, raw := range req.ClaimIDs {
		id, _ := uuid.Parse(raw)
		ids = append(ids, id)
	}
	customerID, _ := uuid.Parse(req.CustomerID)

	result, err := h.claims.ClaimBatch(r.Context(), claim.BatchClaimRequest{
		ClaimIDs:   ids,
		CustomerID: customerID,
		Remark:     req.Remark,
		Actor:      operatorID,
	})
	if err != nil {
		log.Warn("batch claim failed", "count", len(ids), "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := batchClaimResultDTO{
		Succeeded: result.Succeeded,
		Failed:    make([]batchFailureDTO, 0, len(result.Failed)),
	}
	if dto.Succeeded == nil {
		dto.Succeeded = []uuid.UUID{}
	}
	for _, f := range result.Failed {
		dto.Failed = append(dto.Failed, batchFailureDTO{ID: f.ID, Reason: f.Reason})
	}
	RespondSuccess(w, http.StatusOK, dto)
}
