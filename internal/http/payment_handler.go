package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/intent"
)

type IntentService interface {
	CreateIntent(ctx context.Context, amount int64) (string, error)
}

type PaymentHandler struct {
	intents IntentService
	timeout time.Duration
}

func NewPaymentHandler(intents IntentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		intents: intents,
		timeout: timeout,
	}
}

type CreatePaymentRequestDTO struct {
	Total int64 `json:"total"`
}

type CreatePaymentResponseDTO struct {
	ClientSecret string `json:"clientSecret"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// POST /payment/create
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreatePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Total amount is required")
		return
	}

	if req.Total <= 0 {
		respondError(w, http.StatusBadRequest, "Total amount is required")
		return
	}

	clientSecret, err := h.intents.CreateIntent(ctx, req.Total)
	if err != nil {
		if errors.Is(err, intent.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, "Total amount is required")
			return
		}
		log.Printf("create payment intent failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, CreatePaymentResponseDTO{ClientSecret: clientSecret})
}

// GET /
func (h *PaymentHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Success!"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
