package http

import (
	"net/http"

	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
)

// MeHandler serves the authenticated account's own profile surface. The
// user is whatever AuthnMiddleware loaded into the request context.
type MeHandler struct {
	UserService  *service.UserService
	StoryService *service.StoryService
}

// HandleGet serves GET /v1/users/me.
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Profile())
}

// HandleUpdate serves PATCH /v1/users/me, replacing the profile bio.
func (h *MeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	var req struct {
		Bio string `json:"bio"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	updated, err := h.UserService.UpdateBio(r.Context(), user.Username, req.Bio)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated.Profile())
}

// HandleLiked serves GET /v1/users/me/liked, the stories the account has
// liked, newest like first.
func (h *MeHandler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	offset, limit := pageParams(r)
	page, err := h.StoryService.ListLikedBy(r.Context(), user.Username, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStoryPageResponse(page))
}
