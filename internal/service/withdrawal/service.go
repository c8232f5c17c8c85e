package withdrawal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

type withdrawalRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalApproval, error)
	List(ctx context.Context, f domain.WithdrawalFilter, limit, offset int) ([]domain.WithdrawalApproval, int, error)
	LockSubmitted(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.WithdrawalApproval, error)
	Complete(ctx context.Context, tx *sql.Tx, id uuid.UUID, channel, bank, voucherURL, remark string, fee decimal.Decimal, feeCurrency domain.Currency, completedAt time.Time) error
	Fail(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error
	Cancel(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type ledgerRepo interface {
	GetAccountForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, currency domain.Currency) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
	CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
}

type whitelistChecker interface {
	IsWhitelisted(ctx context.Context, customerID uuid.UUID, accountNumber string) (bool, error)
}

type auditRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.TransitionEvent) error
}

type Service struct {
	withdrawals withdrawalRepo
	ledger      ledgerRepo
	whitelist   whitelistChecker
	audit       auditRepo
	db          *sql.DB
}

func NewService(withdrawals withdrawalRepo, ledger ledgerRepo, whitelist whitelistChecker, audit auditRepo, db *sql.DB) *Service {
	return &Service{
		withdrawals: withdrawals,
		ledger:      ledger,
		whitelist:   whitelist,
		audit:       audit,
		db:          db,
	}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalApproval, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (s *Service) ListApprovals(ctx context.Context, f domain.WithdrawalFilter, pageNum, pageSize int) ([]domain.WithdrawalApproval, int, error) {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	withdrawals, total, err := s.withdrawals.List(ctx, f, pageSize, (pageNum-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("ListApprovals: %w", err)
	}
	return withdrawals, total, nil
}

func (s *Service) writeTransitionEvent(ctx context.Context, tx *sql.Tx, entityID uuid.UUID, actor string, from, to domain.WithdrawalStatus, payload []byte, now time.Time) error {
	event := &domain.TransitionEvent{
		ID:         uuid.New(),
		EntityType: domain.EntityWithdrawal,
		EntityID:   entityID,
		Actor:      actor,
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
