package http

import (
	"net/http"

	"github.com/faithlink360/gateway/internal/faithlink/guard"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// MembersHandler lists the directory of the tenant resolved by the guard.
// It never reads churchId from the request itself.
type MembersHandler struct {
	UserService *service.UserService
}

func (h *MembersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	church := httpx.ChurchIDFromContext(ctx)
	if church == "" {
		httpx.WriteError(w, http.StatusUnauthorized, guard.CodeAuthRequired, "Authentication required", nil)
		return
	}

	members, err := h.UserService.ListMembers(ctx, church)
	if err != nil {
		slogx.FromContext(ctx).Error("list members failed", "church_id", church, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, guard.CodeInternal, "Internal server error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MembersResponse{Success: true, ChurchID: church, Members: members})
}
