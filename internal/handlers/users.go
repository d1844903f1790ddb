package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/models"
)

// UserHandler serves /users.
type UserHandler struct {
	profiles ProfileService
	log      logrus.FieldLogger
}

// NewUserHandler creates a new user profile handler
func NewUserHandler(profiles ProfileService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{profiles: profiles, log: log}
}

// Upsert handles POST /users.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var input models.UpsertUserInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err.Error())
		return
	}
	if input.SupabaseID != "" && !claims.CanActFor(input.SupabaseID) {
		forbidden(w)
		return
	}

	user, err := h.profiles.Upsert(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /users/{supabaseId}. An unknown id is answered with a
// JSON null.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	supabaseID := r.PathValue("supabaseId")
	if supabaseID != claims.Subject && !claims.Role.HasPermission(models.ActionViewAnyUser) {
		forbidden(w)
		return
	}

	user, err := h.profiles.Get(r.Context(), supabaseID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
