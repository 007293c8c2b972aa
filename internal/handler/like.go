package handler

import (
	"net/http"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

func (h *LikeHandler) ToggleBlog(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	state, err := h.likeService.ToggleBlog(r.PathValue("id"), principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, state, "like updated")
}

func (h *LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	state, err := h.likeService.ToggleComment(r.PathValue("id"), principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, state, "like updated")
}

func (h *LikeHandler) ToggleReply(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	state, err := h.likeService.ToggleReply(r.PathValue("id"), principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, state, "like updated")
}
