package guard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/cryptox"
)

// Verifier is satisfied by *token.Codec.
type Verifier interface {
	Verify(raw string) (domain.Identity, error)
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

var tokenMessages = map[token.Kind]string{
	token.KindMissing:   "Access token required",
	token.KindExpired:   "Token has expired",
	token.KindMalformed: "Malformed token",
	token.KindInvalid:   "Invalid token",
}

// Authenticate requires a valid bearer token. Missing tokens get 401,
// tokens that fail verification get 403 with the token kind as code.
// revoked may be nil when no denylist is configured.
func Authenticate(v Verifier, revoked RevocationChecker, events domain.EventSink) Gate {
	if events == nil {
		events = domain.DiscardEvents
	}

	return func(ctx context.Context, env Envelope) (Envelope, error) {
		raw, ok := bearerToken(env.Authorization)
		if !ok {
			return env, authFailure(ctx, events, env, token.KindMissing, "", nil)
		}

		id, err := v.Verify(raw)
		if err != nil {
			return env, authFailure(ctx, events, env, token.KindOf(err), raw, err)
		}

		if revoked != nil && id.TokenID != "" {
			isRevoked, err := revoked.IsRevoked(ctx, id.TokenID)
			if err != nil {
				return env, fmt.Errorf("guard: revocation lookup: %w", err)
			}
			if isRevoked {
				e := authFailure(ctx, events, env, token.KindInvalid, raw, fmt.Errorf("token revoked"))
				e.Message = "Token has been revoked"
				return env, e
			}
		}

		if id.ChurchID == "" {
			id.ChurchID = domain.DefaultChurchID
		}
		return env.WithIdentity(id), nil
	}
}

func authFailure(
	ctx context.Context,
	events domain.EventSink,
	env Envelope,
	kind token.Kind,
	raw string,
	cause error,
) *Error {
	detail := map[string]any{"code": string(kind)}
	if raw != "" {
		detail["token_fp"] = cryptox.FingerprintToken(raw)
	}
	if cause != nil {
		detail["reason"] = cause.Error()
	}
	events.Emit(ctx, domain.SecurityEvent{
		Kind:   domain.EventAuthFailure,
		IP:     env.RemoteIP,
		Path:   env.Path,
		Time:   receivedAt(env),
		Detail: detail,
	})

	status := http.StatusForbidden
	if kind == token.KindMissing {
		status = http.StatusUnauthorized
	}
	return reject(status, string(kind), tokenMessages[kind])
}

// bearerToken extracts the credentials of a "Bearer <token>" header. The
// scheme is case insensitive.
func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
