// Package handlers exposes the roadside assistance operations over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/middleware"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

func badRequest(w http.ResponseWriter, message string) {
	middleware.WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

func forbidden(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
}

// writeServiceError maps the service error taxonomy to a response. Errors
// outside the taxonomy are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var (
		verr     *services.ValidationError
		notFound *services.NotFoundError
		invalid  *services.InvalidTransitionError
		conflict *services.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusBadRequest, "validation_error", verr.Error(), verr.Fields)
	case errors.As(err, &notFound):
		middleware.WriteError(w, http.StatusNotFound, "not_found", notFound.Error(), nil)
	case errors.As(err, &invalid):
		middleware.WriteError(w, http.StatusConflict, "invalid_transition", invalid.Error(), nil)
	case errors.As(err, &conflict):
		middleware.WriteError(w, http.StatusConflict, "conflict", conflict.Error(), nil)
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

// callerClaims returns the authenticated caller. The router only serves
// these handlers behind Authenticate, so a missing value is a 401.
func callerClaims(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "User context not found", nil)
	}
	return claims, ok
}
