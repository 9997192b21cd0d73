package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
)

// StoriesHandler serves the /v1/stories endpoints.
type StoriesHandler struct {
	StoryService *service.StoryService
}

type storyResponse struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type storyPageResponse struct {
	Stories []storyResponse `json:"stories"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

func toStoryResponse(s domain.Story) storyResponse {
	return storyResponse{
		ID:         s.ID,
		Author:     s.AuthorUsername,
		Title:      s.Title,
		Body:       s.Body,
		LikesCount: s.LikesCount,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toStoryPageResponse(page domain.StoryPage) storyPageResponse {
	out := storyPageResponse{
		Stories: make([]storyResponse, 0, len(page.Stories)),
		Total:   page.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}
	for _, s := range page.Stories {
		out.Stories = append(out.Stories, toStoryResponse(s))
	}
	return out
}

// pageParams reads offset/limit from the query string. Out-of-range values
// are clamped by the service, so parsing stays forgiving here.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}

// HandleList serves GET /v1/stories. A non-empty q parameter switches the
// listing into a title/body search.
func (h *StoriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	query := r.URL.Query().Get("q")

	page, err := h.StoryService.Search(r.Context(), query, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStoryPageResponse(page))
}

// HandleGet serves GET /v1/stories/{id}.
func (h *StoriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	story, err := h.StoryService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleListByAuthor serves GET /v1/users/{username}/stories.
func (h *StoriesHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	page, err := h.StoryService.ListByAuthor(r.Context(), r.PathValue("username"), offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStoryPageResponse(page))
}

// HandleCreate serves POST /v1/stories.
func (h *StoriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	story, err := h.StoryService.Create(r.Context(), user, req.Title, req.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toStoryResponse(story))
}

// HandleUpdate serves PUT /v1/stories/{id}. Author only.
func (h *StoriesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	story, err := h.StoryService.Update(r.Context(), user, r.PathValue("id"), req.Title, req.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleDelete serves DELETE /v1/stories/{id}. Author only.
func (h *StoriesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	if err := h.StoryService.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleLike serves POST /v1/stories/{id}/like. Liking twice unlikes.
func (h *StoriesHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	liked, likes, err := h.StoryService.ToggleLike(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"liked":       liked,
		"likes_count": likes,
	})
}
