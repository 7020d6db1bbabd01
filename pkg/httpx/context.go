package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyRole     ctxKey = "role"
	CtxKeyChurchID ctxKey = "church_id"
)

// WithPrincipal stores the authenticated subject, role and resolved tenant
// on the context for downstream handlers.
func WithPrincipal(ctx context.Context, userID, role, churchID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	ctx = context.WithValue(ctx, CtxKeyRole, role)
	ctx = context.WithValue(ctx, CtxKeyChurchID, churchID)
	return ctx
}

func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyUserID).(string)
	return v
}

func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyRole).(string)
	return v
}

// ChurchIDFromContext returns the tenant the request has been scoped to.
// Handlers must filter every query by this value.
func ChurchIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyChurchID).(string)
	return v
}
