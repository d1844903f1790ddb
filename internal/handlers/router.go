package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/middleware"
	"github.com/ukydev/roadside-assist/internal/models"
)

// Deps are the collaborators NewRouter wires into handlers.
type Deps struct {
	Auth      *auth.Service
	Staff     db.StaffCollection
	Requests  RequestService
	Payments  PaymentService
	Profiles  ProfileService
	Config    ConfigService
	RateLimit *middleware.RateLimitMiddleware
	// Ping reports store health for /health; nil always reports ok.
	Ping func(ctx context.Context) error
	Log  logrus.FieldLogger
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	authMW := middleware.NewAuthMiddleware(d.Auth)
	staffOnly := authMW.RequirePermission(models.ActionViewAllRequests)
	confirmPayments := authMW.RequirePermission(models.ActionConfirmPayment)
	manageConfig := authMW.RequirePermission(models.ActionManageConfig)

	requests := NewRequestHandler(d.Requests, d.Log)
	payments := NewPaymentHandler(d.Payments, d.Log)
	users := NewUserHandler(d.Profiles, d.Log)
	config := NewConfigHandler(d.Config, d.Log)
	login := NewAuthHandler(d.Auth, d.Staff, d.Log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health(d.Ping))
	mux.HandleFunc("POST /auth/login", login.Login)

	mux.HandleFunc("POST /services", requests.Create)
	mux.Handle("GET /services/all", staffOnly(http.HandlerFunc(requests.ListAll)))
	mux.HandleFunc("GET /services/user/{userId}", requests.ListForUser)
	mux.HandleFunc("GET /services/{id}", requests.Get)
	mux.HandleFunc("PATCH /services/{id}", requests.UpdateStatus)

	mux.HandleFunc("POST /payments/intent", payments.CreateIntent)
	mux.HandleFunc("POST /payments/process", payments.Process)
	mux.HandleFunc("GET /payments/user/{userId}", payments.ListForUser)
	mux.Handle("PATCH /payments/{id}", confirmPayments(http.HandlerFunc(payments.Confirm)))

	mux.HandleFunc("POST /users", users.Upsert)
	mux.HandleFunc("GET /users/{supabaseId}", users.Get)

	mux.Handle("GET /config", manageConfig(http.HandlerFunc(config.List)))
	mux.Handle("GET /config/{key}", manageConfig(http.HandlerFunc(config.Get)))
	mux.Handle("PUT /config/{key}", manageConfig(http.HandlerFunc(config.Set)))

	var h http.Handler = authMW.Authenticate(mux)
	if d.RateLimit != nil {
		h = d.RateLimit.RateLimit(h)
	}
	h = middleware.RequestLogger(d.Log)(h)
	return middleware.RequestID(h)
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
