package domain

import (
	"time"

	"github.com/google/uuid"
)

type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "active"
	OperatorStatusSuspended OperatorStatus = "suspended"
)

// Operator is a back-office user. Every mutating operation is attributed to
// the operator that performed it.
type Operator struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Status       OperatorStatus
	CreatedAt    time.Time
}
