package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/models"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
	})
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	t.Run("valid token", func(t *testing.T) {
		token, _ := authService.GenerateToken("u1", "driver", models.RoleCustomer)

		req := httptest.NewRequest("GET", "/services/user/u1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetClaimsFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "u1", claims.Subject)
			assert.Equal(t, models.RoleCustomer, claims.Role)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/services/all", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		middleware.Authenticate(okHandler(&handlerCalled)).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body ErrorBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "unauthorized", body.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/services/all", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		middleware.Authenticate(okHandler(&handlerCalled)).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip auth path", func(t *testing.T) {
		for _, path := range []string{"/health", "/auth/login"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			handlerCalled := false
			middleware.Authenticate(okHandler(&handlerCalled)).ServeHTTP(w, req)
			assert.True(t, handlerCalled, path)
		}
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	middleware := NewAuthMiddleware(auth.NewService("test-secret", time.Hour))
	staffOnly := middleware.RequireRole(models.RoleOperator, models.RoleAdmin)

	tests := []struct {
		role     models.Role
		expected int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleOperator, http.StatusOK},
		{models.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest("GET", "/services/all", nil)
			req = req.WithContext(WithClaims(req.Context(), &models.Claims{Subject: "x", Role: tt.role}))
			w := httptest.NewRecorder()

			handlerCalled := false
			staffOnly(okHandler(&handlerCalled)).ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
			assert.Equal(t, tt.expected == http.StatusOK, handlerCalled)
		})
	}

	t.Run("no claims", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlerCalled := false
		staffOnly(okHandler(&handlerCalled)).ServeHTTP(w, httptest.NewRequest("GET", "/services/all", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	middleware := NewAuthMiddleware(auth.NewService("test-secret", time.Hour))

	tests := []struct {
		name     string
		role     models.Role
		action   string
		expected int
	}{
		{"admin manages config", models.RoleAdmin, models.ActionManageConfig, http.StatusOK},
		{"operator manages config", models.RoleOperator, models.ActionManageConfig, http.StatusForbidden},
		{"operator views all requests", models.RoleOperator, models.ActionViewAllRequests, http.StatusOK},
		{"customer confirms payment", models.RoleCustomer, models.ActionConfirmPayment, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/config", nil)
			req = req.WithContext(WithClaims(req.Context(), &models.Claims{Subject: "x", Role: tt.role}))
			w := httptest.NewRecorder()

			handlerCalled := false
			middleware.RequirePermission(tt.action)(okHandler(&handlerCalled)).ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestGetClaimsFromContext(t *testing.T) {
	claims := &models.Claims{Subject: "u1", Role: models.RoleCustomer}

	got, ok := GetClaimsFromContext(WithClaims(context.Background(), claims))
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	_, ok = GetClaimsFromContext(context.Background())
	assert.False(t, ok)
}
