package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fidelidadeAPI/internal/reward"
	"fidelidadeAPI/services"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

func (h *RewardHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.rewardService.ListProducts(ctx, r.URL.Query().Get("busca"))
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *RewardHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req reward.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.rewardService.CreateProduct(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *RewardHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	campanhaID := int64(queryInt(r, "campanha_id", 0))
	offers, err := h.rewardService.ListOffers(ctx, campanhaID)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, offers)
}

func (h *RewardHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req reward.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.rewardService.CreateOffer(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, o)
}

func (h *RewardHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid offer id")
		return
	}

	var req reward.UpdateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.rewardService.UpdateOffer(ctx, id, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *RewardHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid offer id")
		return
	}

	if err := h.rewardService.DeleteOffer(ctx, id); err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Brinde removido com sucesso"})
}
