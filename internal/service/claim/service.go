package claim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type claimRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositClaim, error)
	List(ctx context.Context, f domain.ClaimFilter, limit, offset int) ([]domain.DepositClaim, int, error)
	LockPending(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.DepositClaim, error)
	Complete(ctx context.Context, tx *sql.Tx, id, customerID uuid.UUID, remark string, voucherURL *string, completedAt time.Time) error
	Fail(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error
}

type ledgerRepo interface {
	EnsureAccountForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
	CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
}

type auditRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.TransitionEvent) error
}

// rematcher is notified after a claim completes so statement records can be
// paired with it without waiting for the next ingestion.
type rematcher interface {
	Rematch(ctx context.Context) (int, error)
}

type Service struct {
	claims  claimRepo
	ledger  ledgerRepo
	audit   auditRepo
	matcher rematcher
	db      *sql.DB
}

func NewService(claims claimRepo, ledger ledgerRepo, audit auditRepo, matcher rematcher, db *sql.DB) *Service {
	return &Service{
		claims:  claims,
		ledger:  ledger,
		audit:   audit,
		matcher: matcher,
		db:      db,
	}
}

func (s *Service) GetClaimByID(ctx context.Context, id uuid.UUID) (*domain.DepositClaim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetClaimByID: %w", err)
	}
	return c, nil
}

// ListClaims has no side effects; a list may race a concurrent transition
// and show either side of it.
func (s *Service) ListClaims(ctx context.Context, f domain.ClaimFilter, pageNum, pageSize int) ([]domain.DepositClaim, int, error) {
	limit, offset := pageToLimitOffset(pageNum, pageSize)
	claims, total, err := s.claims.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListClaims: %w", err)
	}
	return claims, total, nil
}

func pageToLimitOffset(pageNum, pageSize int) (limit, offset int) {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	return pageSize, (pageNum - 1) * pageSize
}

func (s *Service) writeTransitionEvent(ctx context.Context, tx *sql.Tx, entityID uuid.UUID, actor uuid.UUID, from, to domain.ClaimStatus, payload []byte, now time.Time) error {
	event := &domain.TransitionEvent{
		ID:         uuid.New(),
		EntityType: domain.EntityClaim,
		EntityID:   entityID,
		Actor:      fmt.Sprintf("operator:%s", actor),
		FromStatus: int(from),
		ToStatus:   int(to),
		Payload:    payload,
		CreatedAt:  now,
	}
	if err := s.audit.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("writeTransitionEvent: %w", err)
	}
	return nil
}
