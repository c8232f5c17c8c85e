package recon

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
	"github.com/fiatops/custody-backoffice/internal/logging"
)

type reconRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rec *domain.ReconciliationRecord) error
	List(ctx context.Context, f domain.ReconFilter, limit, offset int) ([]domain.ReconciliationRecord, int, error)
	Stats(ctx context.Context, start, end *time.Time) (total, matched int, err error)
	GetUnmatched(ctx context.Context) ([]domain.ReconciliationRecord, error)
	MatchCandidates(ctx context.Context, rec *domain.ReconciliationRecord, window time.Duration) ([]uuid.UUID, error)
	SetMatched(ctx context.Context, recordID, claimID uuid.UUID) error
}

type claimRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.DepositClaim) error
}

// Service joins bank-statement records against completed deposit claims.
type Service struct {
	records reconRepo
	claims  claimRepo
	db      *sql.DB
	window  time.Duration
}

func NewService(records reconRepo, claims claimRepo, db *sql.DB, matchWindow time.Duration) *Service {
	return &Service{
		records: records,
		claims:  claims,
		db:      db,
		window:  matchWindow,
	}
}

// Stats is derived on every call, never stored. Zero records yields zero
// percentages on both sides rather than a division fault.
func (s *Service) Stats(ctx context.Context, start, end *time.Time) (*domain.ReconStats, error) {
	total, matched, err := s.records.Stats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}

	stats := &domain.ReconStats{
		TotalCount:     total,
		MatchedCount:   matched,
		UnmatchedCount: total - matched,
	}
	if total > 0 {
		stats.MatchedPercent = float64(matched) / float64(total) * 100
		stats.UnmatchedPercent = float64(total-matched) / float64(total) * 100
	}
	return stats, nil
}

func (s *Service) ListRecords(ctx context.Context, f domain.ReconFilter, pageNum, pageSize int) ([]domain.ReconciliationRecord, int, error) {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	records, total, err := s.records.List(ctx, f, pageSize, (pageNum-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecords: %w", err)
	}
	return records, total, nil
}

// Rematch pairs every unmatched record that has exactly one completed-claim
// candidate. Ambiguous records stay unmatched for manual claiming; the run
// is deterministic and re-running it never un-matches a record.
func (s *Service) Rematch(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)

	unmatched, err := s.records.GetUnmatched(ctx)
	if err != nil {
		return 0, fmt.Errorf("Rematch: %w", err)
	}

	matched := 0
	for i := range unmatched {
		rec := &unmatched[i]

		candidates, err := s.records.MatchCandidates(ctx, rec, s.window)
		if err != nil {
			log.Warn("match candidate lookup failed", "record_id", rec.ID, "error", err)
			continue
		}
		if len(candidates) != 1 {
			if len(candidates) > 1 {
				log.Info("ambiguous match left for manual claim",
					"record_id", rec.ID, "candidates", len(candidates))
			}
			continue
		}

		if err := s.records.SetMatched(ctx, rec.ID, candidates[0]); err != nil {
			log.Warn("failed to mark record matched", "record_id", rec.ID, "error", err)
			continue
		}
		matched++
	}

	if matched > 0 {
		log.Info("rematch complete", "unmatched_seen", len(unmatched), "newly_matched", matched)
	}
	return matched, nil
}
