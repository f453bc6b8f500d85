package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fidelidadeAPI/internal/visit"
	"fidelidadeAPI/services"
)

type VisitHandler struct {
	visitService *services.VisitService
}

func NewVisitHandler(visitService *services.VisitService) *VisitHandler {
	return &VisitHandler{
		visitService: visitService,
	}
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := visit.ListParams{
		Loja:    r.URL.Query().Get("loja"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}

	visits, err := h.visitService.List(ctx, params)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clienteID, ok := pathID(r, "clienteId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	visits, err := h.visitService.List(ctx, visit.ListParams{
		ClienteID: clienteID,
		Page:      queryInt(r, "page", 1),
		PerPage:   queryInt(r, "per_page", 0),
	})
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req visit.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.visitService.Create(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, v)
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid visit id")
		return
	}

	var req visit.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.visitService.Update(ctx, id, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, v)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid visit id")
		return
	}

	if err := h.visitService.Delete(ctx, id); err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Visita removida com sucesso"})
}

// Ledger exposes a customer's raw points entries.
func (h *VisitHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clienteID, ok := pathID(r, "clienteId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	entries, err := h.visitService.Ledger(ctx, clienteID)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
