package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"cafecart/internal/catalog"
	"cafecart/internal/repository"
	"cafecart/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps service/repository/catalog errors to HTTP statuses.
// Validation failures carry their message through; storage failures are
// reported as a generic internal error without detail.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "unknown_item", "no such item in the catalog")
	case errors.Is(err, repository.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "item_not_in_cart", "item is not in the cart")
	case errors.Is(err, repository.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cannot check out an empty cart")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be greater than zero")
	case errors.Is(err, catalog.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
