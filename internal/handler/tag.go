package handler

import (
	"net/http"
	"strconv"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
)

type TagHandler struct {
	tagService *service.TagService
}

func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	tag, err := h.tagService.Create(body.Name, principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, tag, "tag created")
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	tags, total, err := h.tagService.List(query, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"tags":  tags,
		"total": total,
		"page":  page,
		"limit": limit,
	}, "tags fetched")
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	tag, err := h.tagService.Rename(r.PathValue("id"), principal.User.ID, body.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tag, "tag updated")
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.tagService.Delete(r.PathValue("id"), principal.User.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "tag deleted")
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
