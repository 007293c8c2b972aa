package handler

import (
	"net/http"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
	"github.com/readium/readium/internal/validation"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's own account.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())
	respond(w, http.StatusOK, principal.User, "user fetched")
}

func (h *UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.UpdateDetails(principal.User, service.UpdateDetailsInput{
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "details updated")
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperr.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, r, apperr.Validation("avatar file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	if err := validation.ValidateFile(header, validation.ImageConstraints); err != nil {
		respondError(w, r, apperr.Validation(err.Error()))
		return
	}

	url, err := h.userService.UpdateAvatar(principal.User, &service.Upload{
		Reader:      file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Filename:    header.Filename,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"avatar": url}, "avatar updated")
}

// Delete removes the account and ends the session.
func (h *UserHandler) Delete(authHandler *AuthHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := ctxkeys.Principal(r.Context())

		if err := h.userService.Delete(principal.User.ID); err != nil {
			respondError(w, r, err)
			return
		}
		authHandler.clearSessionCookies(w)
		respond(w, http.StatusOK, nil, "account deleted")
	}
}

func (h *UserHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	blogs, err := h.userService.Bookmarks(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, blogs, "bookmarks fetched")
}

func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	entries, err := h.userService.History(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, entries, "history fetched")
}
