package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
	"github.com/fiatops/custody-backoffice/internal/service/recon"
)

type reconService interface {
	Stats(ctx context.Context, start, end *time.Time) (*domain.ReconStats, error)
	ListRecords(ctx context.Context, f domain.ReconFilter, pageNum, pageSize int) ([]domain.ReconciliationRecord, int, error)
	Rematch(ctx context.Context) (int, error)
	ImportStatements(ctx context.Context, lines []domain.StatementLine) (*recon.ImportSummary, error)
}

type ReconHandler struct {
	recon reconService
}

func NewReconHandler(reconSvc reconService) *ReconHandler {
	return &ReconHandler{recon: reconSvc}
}

type reconRecordDTO struct {
	ID          uuid.UUID       `json:"id"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	ReferenceNo *string         `json:"reference_no"`
	MatchStatus int             `json:"match_status"`
	ClaimID     *uuid.UUID      `json:"claim_id,omitempty"`
	Remark      *string         `json:"remark,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toReconRecordDTO(rec *domain.ReconciliationRecord) reconRecordDTO {
	return reconRecordDTO{
		ID:          rec.ID,
		Currency:    string(rec.Currency),
		Amount:      rec.Amount,
		Type:        string(rec.Type),
		ReferenceNo: rec.ReferenceNo,
		MatchStatus: int(rec.MatchStatus),
		ClaimID:     rec.ClaimID,
		Remark:      rec.Remark,
		CreatedAt:   rec.CreatedAt,
	}
}

func (h *ReconHandler) Stats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.recon.Stats(r.Context(), start, end)
	if err != nil {
		logging.FromContext(r.Context()).Warn("recon stats failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, stats)
}

func (h *ReconHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	var f domain.ReconFilter

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
	records, total, err := h.recon.ListRecords(r.Context(), f, pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Warn("recon list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]reconRecordDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toReconRecordDTO(&records[i]))
	}
	RespondSuccess(w, http.StatusOK, newPagedResponse(dtos, total, pageNum, pageSize))
}

func (h *ReconHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	matched, err := h.recon.Rematch(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("rematch failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]int{"matched": matched})
}

type statementLineRequest struct {
	ReferenceNo       string          `json:"reference_no"`
	Currency          string          `json:"currency"`
	Amount            decimal.Decimal `json:"amount"`
	Type              string          `json:"type"`
	Channel           string          `json:"channel,omitempty"`
	AccountHolderName string          `json:"account_holder_name,omitempty"`
	Remark            string          `json:"remark,omitempty"`
	ValueDate         *time.Time      `json:"value_date,omitempty"`
}

type importStatementsRequest struct {
	Lines []statementLineRequest `json:"lines"`
}

func (r importStatementsRequest) Validate() []FieldError {
	if len(r.Lines) == 0 {
		return []FieldError{{Field: "lines", Message: "required"}}
	}
	return nil
}

func (h *ReconHandler) ImportStatements(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req importStatementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	lines := make([]domain.StatementLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		line := domain.StatementLine{
			ReferenceNo:       l.ReferenceNo,
			Currency:          domain.Currency(l.Currency),
			Amount:            l.Amount,
			Type:              domain.RecordType(l.Type),
			Channel:           domain.Channel(l.Channel),
			AccountHolderName: l.AccountHolderName,
			Remark:            l.Remark,
		}
		if l.ValueDate != nil {
			line.ValueDate = *l.ValueDate
		}
		lines = append(lines, line)
	}

	summary, err := h.recon.ImportStatements(r.Context(), lines)
	if err != nil {
		log.Warn("statement import failed", "lines", len(lines), "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, summary)
}
