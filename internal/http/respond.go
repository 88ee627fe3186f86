package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"storefront/internal/order/domain"
	"storefront/internal/order/repository"
	"storefront/internal/order/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleOrderError maps order flow errors onto HTTP statuses.
func handleOrderError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: vErr.Error(),
		})
	case errors.Is(err, service.ErrStalePrice):
		respondError(w, http.StatusConflict, "stale_price", "prices changed since the cart was built, refresh and resubmit")
	case errors.Is(err, repository.ErrVersionConflict):
		respondError(w, http.StatusConflict, "conflict", "order was modified concurrently, retry")
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "access_denied", "access denied")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, service.ErrCollaboratorUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "pricing is temporarily unavailable, retry later")
	case errors.Is(err, service.ErrOrderNumberExhausted):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "could not allocate an order number, retry later")
	default:
		log.Printf("unhandled order error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
