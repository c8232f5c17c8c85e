package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

const auditColumns = `id, entity_type, entity_id, actor, from_status, to_status, payload, created_at`

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.TransitionEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transition_events (
			id, entity_type, entity_id, actor, from_status, to_status, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.EntityType, e.EntityID, e.Actor, e.FromStatus, e.ToStatus, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AuditRepository) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]domain.TransitionEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM transition_events
		WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByEntity: %w", err)
	}
	defer rows.Close()

	var events []domain.TransitionEvent
	for rows.Next() {
		var e domain.TransitionEvent
		var payload *[]byte
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Actor, &e.FromStatus, &e.ToStatus, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByEntity: scan: %w", err)
		}
		if payload != nil {
			e.Payload = *payload
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByEntity: rows: %w", err)
	}
	return events, nil
}
