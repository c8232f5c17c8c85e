package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type BatchClaimRequest struct {
	ClaimIDs   []uuid.UUID
	CustomerID uuid.UUID
	Remark     string
	Actor      uuid.UUID
}

// ClaimBatch approves each claim independently; one bad claim never blocks
// the rest of the batch. Claims already matched to a customer keep their own
// match and ignore the batch customer.
func (s *Service) ClaimBatch(ctx context.Context, req BatchClaimRequest) (*domain.BatchClaimResult, error) {
	log := logging.FromContext(ctx)

	if len(req.ClaimIDs) == 0 {
		return nil, fmt.Errorf("ClaimBatch: empty batch: %w", domain.ErrValidationFailed)
	}
	if req.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("ClaimBatch: customer required: %w", domain.ErrValidationFailed)
	}
	if strings.TrimSpace(req.Remark) == "" {
		return nil, fmt.Errorf("ClaimBatch: remark required: %w", domain.ErrValidationFailed)
	}

	result := &domain.BatchClaimResult{}
	customerID := req.CustomerID

	for _, id := range req.ClaimIDs {
		_, err := s.ClaimSingle(ctx, SingleClaimRequest{
			ClaimID:    id,
			Action:     domain.ClaimActionApprove,
			CustomerID: &customerID,
			Remark:     req.Remark,
			Actor:      req.Actor,
		})
		if err != nil {
			result.Failed = append(result.Failed, domain.BatchClaimFailure{
				ID:     id,
				Reason: failureReason(err),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	log.Info("batch claim processed",
		"total", len(req.ClaimIDs),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return "ALREADY_PROCESSED"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrMissingCustomer):
		return "MISSING_CUSTOMER"
	case errors.Is(err, domain.ErrValidationFailed):
		return "VALIDATION_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}
