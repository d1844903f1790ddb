package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/middleware"
	"github.com/ukydev/roadside-assist/internal/models"
)

// AuthHandler handles staff sign in
type AuthHandler struct {
	authService *auth.Service
	staff       db.StaffCollection
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, staff db.StaffCollection, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		staff:       staff,
		log:         log,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(r, &loginReq); err != nil {
		badRequest(w, err.Error())
		return
	}

	// Validate input
	if loginReq.Username == "" || loginReq.Password == "" {
		badRequest(w, "Username and password are required")
		return
	}

	account, err := h.authService.Authenticate(r.Context(), h.staff, loginReq.Username, loginReq.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserInactive):
			middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "Account is deactivated", nil)
		case errors.Is(err, auth.ErrInvalidCredentials):
			middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials", nil)
		default:
			writeServiceError(w, r, h.log, err)
		}
		return
	}

	token, err := h.authService.GenerateToken(account.ID.Hex(), account.Username, account.Role)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	// A failed last login write does not fail the login.
	if err := h.staff.UpdateLastLogin(r.Context(), account.ID.Hex()); err != nil {
		h.log.WithError(err).WithField("username", account.Username).Warn("Failed to record last login")
	} else {
		now := time.Now().UTC()
		account.LastLogin = &now
	}

	h.log.WithFields(logrus.Fields{
		"username": account.Username,
		"role":     account.Role,
	}).Info("Staff signed in")

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, Staff: *account})
}
