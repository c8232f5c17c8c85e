package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityClaim      EntityType = "claim"
	EntityWithdrawal EntityType = "withdrawal"
)

// TransitionEvent records every state transition with the actor that caused
// it. The table is append-only.
type TransitionEvent struct {
	ID         uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	Actor      string
	FromStatus int
	ToStatus   int
	Payload    json.RawMessage
	CreatedAt  time.Time
}
