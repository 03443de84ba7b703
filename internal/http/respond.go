package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/checkout"
	"github.com/Itskartike/globaleats/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// RejectedResponse is the 422 body for a checkout whose brand groups could
// not all be fulfilled. Every failing brand is listed.
type RejectedResponse struct {
	Error    string                `json:"error"`
	Code     string                `json:"code"`
	Failures []domain.BrandFailure `json:"failures"`
}

// ConflictResponse is the 409 body for an illegal status transition. It
// carries the order's actual current status so the caller can resynchronize.
type ConflictResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CurrentStatus string `json:"current_status"`
	TargetStatus  string `json:"target_status"`
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

// handleServiceError maps checkout service errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var rejected *checkout.RejectedError
	if errors.As(err, &rejected) {
		respondJSON(w, http.StatusUnprocessableEntity, RejectedResponse{
			Error:    "one or more brands in the cart cannot be fulfilled",
			Code:     "checkout_rejected",
			Failures: rejected.Failures,
		})
		return
	}

	var illegal *checkout.IllegalTransitionError
	if errors.As(err, &illegal) {
		respondJSON(w, http.StatusConflict, ConflictResponse{
			Error:         illegal.Error(),
			Code:          "illegal_transition",
			CurrentStatus: illegal.Current.String(),
			TargetStatus:  illegal.Target.String(),
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, checkout.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another vendor")
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", "unknown payment method")
	case errors.Is(err, checkout.ErrInvalidTargetStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown target status")
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidCoordinate):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
