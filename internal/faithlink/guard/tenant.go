package guard

import (
	"context"
	"net/http"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/slogx"
)

const churchIDField = "churchId"

// RequestedChurchID picks the tenant a request is aimed at: path parameter,
// then JSON body field, then query parameter. Empty means none was given.
func RequestedChurchID(env Envelope) string {
	if v := env.Param(churchIDField); v != "" {
		return v
	}
	if m, ok := env.Body.(map[string]any); ok {
		if v, ok := m[churchIDField].(string); ok && v != "" {
			return v
		}
	}
	return env.Query.Get(churchIDField)
}

// IsolateTenant rejects requests aimed at another church unless the caller
// is an ADMIN, in which case the request is rescoped to the target church.
func IsolateTenant(events domain.EventSink) Gate {
	if events == nil {
		events = domain.DiscardEvents
	}

	return func(ctx context.Context, env Envelope) (Envelope, error) {
		id, ok := env.Identity()
		if !ok {
			return env, reject(http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
		}

		target := RequestedChurchID(env)
		if target == "" || target == id.ChurchID {
			return env.WithChurchID(id.ChurchID), nil
		}

		if id.IsAdmin() {
			slogx.FromContext(ctx).Info("admin cross-church access",
				"user_id", id.Subject, "home_church", id.ChurchID, "target_church", target)
			return env.WithChurchID(target), nil
		}

		events.Emit(ctx, domain.SecurityEvent{
			Kind: domain.EventTenantViolation,
			IP:   env.RemoteIP,
			Path: env.Path,
			Time: receivedAt(env),
			Detail: map[string]any{
				"user_id":       id.Subject,
				"user_church":   id.ChurchID,
				"target_church": target,
			},
		})
		return env, reject(http.StatusForbidden, CodeChurchAccessDenied, "Access denied to this church")
	}
}
