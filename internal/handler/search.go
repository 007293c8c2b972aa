package handler

import (
	"net/http"
	"strings"

	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/service"
)

type SearchHandler struct {
	blogService *service.BlogService
}

func NewSearchHandler(blogService *service.BlogService) *SearchHandler {
	return &SearchHandler{blogService: blogService}
}

// Search finds published blogs. Query params: query, tags (comma-separated),
// sortBy (created_at, updated_at, views, title), sortType (asc/desc), page,
// limit.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := repository.SearchParams{
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortDesc: strings.EqualFold(q.Get("sortType"), "desc"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(strings.ToLower(tag)); tag != "" {
				params.TagNames = append(params.TagNames, tag)
			}
		}
	}

	blogs, total, err := h.blogService.Search(params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"blogs": blogs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}, "search results fetched")
}
