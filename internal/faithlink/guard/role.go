package guard

import (
	"context"
	"net/http"
	"slices"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// RequireRole lets the request through only if the identity's role is one
// of roles. It must run after Authenticate.
func RequireRole(roles ...domain.Role) Gate {
	required := domain.RoleStrings(roles)

	return func(ctx context.Context, env Envelope) (Envelope, error) {
		id, ok := env.Identity()
		if !ok {
			return env, reject(http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
		}
		if slices.Contains(roles, id.Role) {
			return env, nil
		}

		slogx.FromContext(ctx).Warn("insufficient permissions",
			"user_id", id.Subject,
			"role", id.Role,
			"required", required,
			"ip", env.RemoteIP,
			"path", env.Path,
		)

		e := reject(http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions")
		e.Extra = map[string]any{
			"required": required,
			"current":  id.Role.String(),
		}
		return env, e
	}
}
