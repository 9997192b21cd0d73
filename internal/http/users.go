package http

import (
	"net/http"

	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
)

// UsersHandler serves public profile lookups.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleGet serves GET /v1/users/{username}.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Profile())
}
