package handler

import (
	"net/http"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// MyStats returns the caller's dashboard roll-up.
func (h *DashboardHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	stats, err := h.dashboardService.Stats(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats, "stats fetched")
}

// AuthorStats returns public stats for any author.
func (h *DashboardHandler) AuthorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.PathValue("userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats, "stats fetched")
}
