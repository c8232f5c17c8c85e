package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

const reconColumns = `id, currency, amount, type, reference_no, match_status,
	claim_id, remark, created_at`

type ReconRepository struct {
	db *sql.DB
}

func NewReconRepository(db *sql.DB) *ReconRepository {
	return &ReconRepository{db: db}
}

func (r *ReconRepository) Create(ctx context.Context, tx *sql.Tx, rec *domain.ReconciliationRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_records (
			id, currency, amount, type, reference_no, match_status,
			claim_id, remark, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Currency, rec.Amount, rec.Type, rec.ReferenceNo, rec.MatchStatus,
		rec.ClaimID, rec.Remark, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ReconRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reconColumns+` FROM reconciliation_records WHERE id = $1`, id,
	)
	rec, err := scanReconRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rec, nil
}

func (r *ReconRepository) List(ctx context.Context, f domain.ReconFilter, limit, offset int) ([]domain.ReconciliationRecord, int, error) {
	where := `WHERE 1=1`
	args := []any{}

	if f.MatchStatus != nil {
		args = append(args, *f.MatchStatus)
		where += ` AND match_status = $` + strconv.Itoa(len(args))
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		where += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (reference_no ILIKE $` + n + ` OR remark ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reconciliation_records `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reconColumns+` FROM reconciliation_records `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var records []domain.ReconciliationRecord
	for rows.Next() {
		rec, err := scanReconRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return records, total, nil
}

func (r *ReconRepository) Stats(ctx context.Context, start, end *time.Time) (total, matched int, err error) {
	where := `WHERE 1=1`
	args := []any{}
	if start != nil {
		args = append(args, *start)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if end != nil {
		args = append(args, *end)
		where += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE match_status = 1)
		FROM reconciliation_records `+where, args...,
	).Scan(&total, &matched)
	if err != nil {
		return 0, 0, fmt.Errorf("Stats: %w", err)
	}
	return total, matched, nil
}

func (r *ReconRepository) GetUnmatched(ctx context.Context) ([]domain.ReconciliationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reconColumns+` FROM reconciliation_records
		WHERE match_status = $1 ORDER BY created_at`, domain.MatchStatusUnmatched,
	)
	if err != nil {
		return nil, fmt.Errorf("GetUnmatched: %w", err)
	}
	defer rows.Close()

	var records []domain.ReconciliationRecord
	for rows.Next() {
		rec, err := scanReconRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GetUnmatched: scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetUnmatched: rows: %w", err)
	}
	return records, nil
}

// MatchCandidates returns the ids of completed claims that could pair with
// the record: by exact reference number when the record carries one,
// otherwise by currency and amount within the date window.
func (r *ReconRepository) MatchCandidates(ctx context.Context, rec *domain.ReconciliationRecord, window time.Duration) ([]uuid.UUID, error) {
	var rows *sql.Rows
	var err error

	if rec.ReferenceNo != nil && *rec.ReferenceNo != "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id FROM deposit_claims
			WHERE status = $1 AND reference_no = $2 AND currency = $3 AND amount = $4`,
			domain.ClaimStatusCompleted, *rec.ReferenceNo, rec.Currency, rec.Amount,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id FROM deposit_claims
			WHERE status = $1 AND currency = $2 AND amount = $3
			AND created_at BETWEEN $4 AND $5`,
			domain.ClaimStatusCompleted, rec.Currency, rec.Amount,
			rec.CreatedAt.Add(-window), rec.CreatedAt.Add(window),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("MatchCandidates: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("MatchCandidates: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MatchCandidates: rows: %w", err)
	}
	return ids, nil
}

func (r *ReconRepository) SetMatched(ctx context.Context, recordID, claimID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reconciliation_records SET match_status = $1, claim_id = $2
		WHERE id = $3 AND match_status = $4`,
		domain.MatchStatusMatched, claimID, recordID, domain.MatchStatusUnmatched,
	)
	if err != nil {
		return fmt.Errorf("SetMatched: %w", err)
	}
	// Zero rows means a concurrent matcher run got there first, which is fine:
	// the matcher is deterministic and both runs picked the same claim.
	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("SetMatched: rows affected: %w", err)
	}
	return nil
}

func scanReconRecord(s scanner) (*domain.ReconciliationRecord, error) {
	var rec domain.ReconciliationRecord
	var claimID uuid.NullUUID

	err := s.Scan(
		&rec.ID, &rec.Currency, &rec.Amount, &rec.Type, &rec.ReferenceNo, &rec.MatchStatus,
		&claimID, &rec.Remark, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if claimID.Valid {
		rec.ClaimID = &claimID.UUID
	}
	return &rec, nil
}
