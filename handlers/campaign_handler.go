package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fidelidadeAPI/internal/campaign"
	"fidelidadeAPI/services"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
}

func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	onlyActive := r.URL.Query().Get("ativa") == "true"
	campaigns, err := h.campaignService.List(ctx, r.URL.Query().Get("loja"), onlyActive)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, campaigns)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid campaign id")
		return
	}

	c, err := h.campaignService.Get(ctx, id)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req campaign.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.campaignService.Create(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid campaign id")
		return
	}

	var req campaign.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.campaignService.Update(ctx, id, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid campaign id")
		return
	}

	if err := h.campaignService.Delete(ctx, id); err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Campanha removida com sucesso"})
}
