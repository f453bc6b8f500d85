package handlers

import (
	"context"
	"net/http"
	"time"

	"fidelidadeAPI/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.dashboardService.Summary(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	top, err := h.dashboardService.TopCustomers(ctx, queryInt(r, "limit", 10))
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, top)
}

func (h *DashboardHandler) VisitsByPeriod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	series, err := h.dashboardService.VisitsByPeriod(ctx, queryInt(r, "dias", 30))
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, series)
}

func (h *DashboardHandler) TierDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dist, err := h.dashboardService.TierDistribution(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dist)
}

func (h *DashboardHandler) RedemptionsByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	counts, err := h.dashboardService.RedemptionsByStatus(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, counts)
}

func (h *DashboardHandler) CustomerReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.dashboardService.CustomerReport(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) CampaignPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.dashboardService.CampaignPerformance(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
