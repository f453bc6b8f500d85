package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fidelidadeAPI/internal/apperr"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// mapError translates the error taxonomy to HTTP statuses. Unknown
// errors get a generic 500 so internals never leak.
func mapError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	var code int
	switch kind {
	case apperr.Validation:
		code = http.StatusBadRequest
	case apperr.Authentication:
		code = http.StatusUnauthorized
	case apperr.Authorization:
		code = http.StatusForbidden
	case apperr.NotFound:
		code = http.StatusNotFound
	case apperr.Conflict:
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
	}
	respondWithError(w, code, err.Error())
}

func pathID(r *http.Request, name string) (int64, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
