package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fidelidadeAPI/internal/redemption"
	"fidelidadeAPI/services"
)

type RedemptionHandler struct {
	redemptionService *services.RedemptionService
}

func NewRedemptionHandler(redemptionService *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
	}
}

func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := redemption.ListParams{
		Status:  r.URL.Query().Get("status"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}

	redemptions, err := h.redemptionService.List(ctx, params)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, redemptions)
}

func (h *RedemptionHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clienteID, ok := pathID(r, "clienteId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	redemptions, err := h.redemptionService.List(ctx, redemption.ListParams{ClienteID: clienteID})
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, redemptions)
}

func (h *RedemptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req redemption.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.redemptionService.Create(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, res)
}

func (h *RedemptionHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid redemption id")
		return
	}

	res, err := h.redemptionService.MarkDelivered(ctx, id)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *RedemptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid redemption id")
		return
	}

	res, err := h.redemptionService.Cancel(ctx, id)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *RedemptionHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req redemption.EligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.redemptionService.CheckEligibility(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *RedemptionHandler) AvailableOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clienteID, ok := pathID(r, "clienteId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	offers, err := h.redemptionService.AvailableOffers(ctx, clienteID)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, offers)
}

func (h *RedemptionHandler) GetByVoucher(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	codigo := mux.Vars(r)["codigo"]
	if codigo == "" {
		respondWithError(w, http.StatusBadRequest, "Voucher é obrigatório")
		return
	}

	res, err := h.redemptionService.GetByVoucher(ctx, codigo)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}
