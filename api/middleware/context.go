package middleware

import (
	"context"

	"github.com/tableside/tableside-backend/pkg/types"
)

type contextKey string

const ctxOwner contextKey = "owner_ref"

// OwnerFromContext returns the resolved owner ref for the request, if any.
func OwnerFromContext(ctx context.Context) (types.OwnerRef, bool) {
	if ctx == nil {
		return types.OwnerRef{}, false
	}
	owner, ok := ctx.Value(ctxOwner).(types.OwnerRef)
	return owner, ok && owner.Valid()
}

// WithOwner injects the owner ref into the context for downstream handlers.
func WithOwner(ctx context.Context, owner types.OwnerRef) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}
