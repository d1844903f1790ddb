package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/models"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler serves /payments.
type PaymentHandler struct {
	payments PaymentService
	log      logrus.FieldLogger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

// CreateIntent handles POST /payments/intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var input models.CreateIntentInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}

	intent, err := h.payments.CreateIntent(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Process handles POST /payments/process.
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var input models.ProcessPaymentInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}
	if input.UserID != "" && !claims.CanActFor(input.UserID) {
		forbidden(w)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > 255 {
		badRequest(w, "Idempotency-Key must be at most 255 characters")
		return
	}

	result, err := h.payments.Process(r.Context(), input, key)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListForUser handles GET /payments/user/{userId}.
func (h *PaymentHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	userID := r.PathValue("userId")
	if !claims.CanActFor(userID) {
		forbidden(w)
		return
	}

	payments, err := h.payments.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Confirm handles PATCH /payments/{id}.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var input models.ConfirmPaymentInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}

	p, err := h.payments.Confirm(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
