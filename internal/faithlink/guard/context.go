package guard

import (
	"context"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
)

type identityKey struct{}

// ContextWithIdentity is called by Middleware once a pipeline accepts a
// request with a verified identity.
func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}
