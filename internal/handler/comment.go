package handler

import (
	"net/http"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		BlogID  string `json:"blogId"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	comment, err := h.commentService.Create(body.BlogID, principal.User.ID, body.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, comment, "comment created")
}

func (h *CommentHandler) ListByBlog(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ListByBlog(r.PathValue("blogId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, comments, "comments fetched")
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	comment, err := h.commentService.Update(r.PathValue("id"), principal.User.ID, body.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, comment, "comment updated")
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.commentService.Delete(r.PathValue("id"), principal.User.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "comment deleted")
}
