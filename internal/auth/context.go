package auth

import (
	"context"

	"github.com/google/uuid"
)

type operatorIDKey struct{}

func ContextWithOperatorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, operatorIDKey{}, id)
}

func OperatorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(operatorIDKey{}).(uuid.UUID)
	return id, ok
}
