package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
)

// AdminHandler serves the /v1/admin moderation endpoints. Every handler
// requires an authenticated actor; the role hierarchy itself is enforced in
// the service.
type AdminHandler struct {
	AdminService *service.AdminService
}

// HandleListUsers serves GET /v1/admin/users. The active query parameter
// picks between active (default) and blocked accounts.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	active := r.URL.Query().Get("active") != "false"
	offset, limit := pageParams(r)

	users, err := h.AdminService.ListUsers(r.Context(), actor, active, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	profiles := make([]domain.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// HandlePromote serves POST /v1/admin/users/{username}/promote.
func (h *AdminHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.AdminService.Promote)
}

// HandleDemote serves POST /v1/admin/users/{username}/demote.
func (h *AdminHandler) HandleDemote(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.AdminService.Demote)
}

// HandleBlock serves POST /v1/admin/users/{username}/block.
func (h *AdminHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.AdminService.Block)
}

// HandleUnblock serves POST /v1/admin/users/{username}/unblock.
func (h *AdminHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.AdminService.Unblock)
}

// moderate runs one of the single-target admin operations against the
// {username} path segment.
func (h *AdminHandler) moderate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor domain.User, username string) error,
) {
	actor, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	if err := op(r.Context(), actor, r.PathValue("username")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
