package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/models"
)

// RequestHandler serves /services.
type RequestHandler struct {
	requests RequestService
	log      logrus.FieldLogger
}

// NewRequestHandler creates a new service request handler
func NewRequestHandler(requests RequestService, log logrus.FieldLogger) *RequestHandler {
	return &RequestHandler{requests: requests, log: log}
}

// Create handles POST /services. Customers may only book for themselves.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var input models.CreateServiceRequestInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}
	if input.UserID != "" && !claims.CanActFor(input.UserID) {
		forbidden(w)
		return
	}

	req, err := h.requests.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListAll handles GET /services/all.
func (h *RequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ListForUser handles GET /services/user/{userId}.
func (h *RequestHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	userID := r.PathValue("userId")
	if !claims.CanActFor(userID) {
		forbidden(w)
		return
	}

	reqs, err := h.requests.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// Get handles GET /services/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	req, err := h.requests.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if !claims.CanActFor(req.UserID) {
		forbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// UpdateStatus handles PATCH /services/{id}. Staff may apply any legal
// transition; a customer may only cancel their own request.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var input models.UpdateStatusInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}
	input.ID = r.PathValue("id")

	if !claims.Role.HasPermission(models.ActionUpdateRequest) {
		if input.Status != models.StatusCancelled || input.Price != nil {
			forbidden(w)
			return
		}
		current, err := h.requests.Get(r.Context(), input.ID)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		if current.UserID != claims.Subject {
			forbidden(w)
			return
		}
	}

	req, err := h.requests.UpdateStatus(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
