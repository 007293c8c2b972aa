package handler

import (
	"net/http"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
)

type FollowingHandler struct {
	followingService *service.FollowingService
}

func NewFollowingHandler(followingService *service.FollowingService) *FollowingHandler {
	return &FollowingHandler{followingService: followingService}
}

func (h *FollowingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	state, err := h.followingService.Toggle(principal.User.ID, r.PathValue("userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, state, "follow state updated")
}

func (h *FollowingHandler) Followers(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	followers, err := h.followingService.Followers(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, followers, "followers fetched")
}

func (h *FollowingHandler) Following(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	following, err := h.followingService.Following(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, following, "following fetched")
}
