package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hugh/go-storefront/internal/api/dto"
	"github.com/hugh/go-storefront/internal/api/validation"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// writeInternalError logs err and answers 500 without leaking it.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeAndValidate reads the JSON body into dst and checks its validate
// tags. It writes the error response itself and reports whether the
// handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if fields := validation.Struct(dst); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Validation failed", Details: fields})
		return false
	}

	return true
}

// requireQuery returns the named query parameter, answering 422 when it is
// missing.
func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{name: "is required"},
		})
		return "", false
	}
	return v, true
}

// pathID parses the {id} URL parameter, answering 422 when it isn't a
// positive integer.
func pathID(w http.ResponseWriter, raw string) (uint64, bool) {
	id, err := validation.ParseID(raw)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"id": err.Error()},
		})
		return 0, false
	}
	return id, true
}
