package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
)

type LoginHandler struct {
	AuthService *service.AuthService
	Events      domain.EventSink
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "Email and password are required", nil)
		return
	}

	sess, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.Events.Emit(ctx, domain.SecurityEvent{
				Kind:   domain.EventAuthFailure,
				IP:     httpx.ClientIP(r),
				Path:   r.URL.Path,
				Time:   time.Now(),
				Detail: map[string]any{"code": codeInvalidCredentials},
			})
			httpx.WriteError(w, http.StatusUnauthorized, codeInvalidCredentials, "Invalid email or password", nil)
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, guard.CodeInternal, "Internal server error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     sess.Token,
		ExpiresIn: int64(sess.ExpiresIn.Seconds()),
		User:      sess.User.Member(),
	})
}

type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := guard.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, guard.CodeAuthRequired, "Authentication required", nil)
		return
	}

	if err := h.AuthService.Logout(ctx, id); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "Token cannot be revoked", nil)
			return
		}
		slogx.FromContext(ctx).Error("logout failed", "user_id", id.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, guard.CodeInternal, "Internal server error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Logged out"})
}

type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := guard.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, guard.CodeAuthRequired, "Authentication required", nil)
		return
	}

	resp := MeResponse{
		Success: true,
		User: IdentityResponse{
			Subject:   id.Subject,
			Role:      id.Role.String(),
			ChurchID:  id.ChurchID,
			IssuedAt:  id.IssuedAt.Unix(),
			ExpiresAt: id.ExpiresAt.Unix(),
		},
	}

	// Tokens minted from the CLI may name subjects with no stored profile.
	if h.UserService != nil {
		u, err := h.UserService.GetUser(ctx, id.Subject)
		switch {
		case err == nil:
			m := u.Member()
			resp.Profile = &m
		case !errors.Is(err, store.ErrNotFound):
			slogx.FromContext(ctx).Warn("failed to load profile", "user_id", id.Subject, "err", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
