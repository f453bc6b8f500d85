package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fidelidadeAPI/internal/customer"
	"fidelidadeAPI/services"
)

type CustomerHandler struct {
	customerService *services.CustomerService
}

func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := customer.ListParams{
		Busca:   r.URL.Query().Get("busca"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}

	customers, err := h.customerService.List(ctx, params)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	c, err := h.customerService.Get(ctx, id)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) GetByCPF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cpf := mux.Vars(r)["cpf"]
	if cpf == "" {
		respondWithError(w, http.StatusBadRequest, "CPF é obrigatório")
		return
	}

	c, err := h.customerService.GetByCPF(ctx, cpf)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req customer.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.customerService.Create(ctx, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	var req customer.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.customerService.Update(ctx, id, &req)
	if err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	if err := h.customerService.Delete(ctx, id); err != nil {
		mapError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cliente removido com sucesso"})
}
