package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/config"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/events"
	"github.com/ukydev/roadside-assist/internal/handlers"
	"github.com/ukydev/roadside-assist/internal/idempotency"
	"github.com/ukydev/roadside-assist/internal/logging"
	"github.com/ukydev/roadside-assist/internal/middleware"
	"github.com/ukydev/roadside-assist/internal/payment"
	"github.com/ukydev/roadside-assist/internal/services"
	"github.com/ukydev/roadside-assist/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	keys, closeKeys, err := newKeyStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeKeys()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if cfg.BootstrapAdminUsername != "" {
		created, err := authService.EnsureAdmin(ctx, store.Staff, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.WithField("username", cfg.BootstrapAdminUsername).Info("Created bootstrap admin")
		}
	}

	v := validation.New()
	configStore := services.NewConfigStore(store.Config, v, log)
	requests := services.NewRequestManager(store.ServiceRequests, v, publisher, log)
	payments := services.NewPaymentRecorder(store.Payments, newGateway(cfg), configStore, v, log, services.PaymentRecorderOptions{
		Keys:            keys,
		Publisher:       publisher,
		DefaultCurrency: cfg.DefaultCurrency,
	})

	router := handlers.NewRouter(handlers.Deps{
		Auth:      authService,
		Staff:     store.Staff,
		Requests:  requests,
		Payments:  payments,
		Profiles:  services.NewProfileService(store.Profiles, v, log),
		Config:    configStore,
		RateLimit: middleware.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxyHeaders),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	return serve(ctx, srv, cfg, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, cfg *config.Config, log logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.StripeSecretKey != "" {
		return payment.NewStripeGateway(cfg.StripeSecretKey)
	}
	return payment.NewSimulatedGateway()
}

// newPublisher connects to the MQTT broker, or drops events when none is
// configured or reachable.
func newPublisher(cfg *config.Config, log logrus.FieldLogger) events.Publisher {
	if cfg.MQTTBrokerURL == "" {
		log.Info("MQTT_BROKER_URL not set, lifecycle events disabled")
		return events.NopPublisher{}
	}
	pub, err := events.NewMQTTPublisher(cfg.MQTTBrokerURL, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	if err != nil {
		log.WithError(err).Warn("MQTT broker unavailable, lifecycle events disabled")
		return events.NopPublisher{}
	}
	log.WithField("broker", cfg.MQTTBrokerURL).Info("Publishing lifecycle events")
	return pub
}

// newKeyStore returns a nil store when REDIS_URL is unset, which disables
// idempotency keys.
func newKeyStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (idempotency.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, idempotency keys disabled")
		return nil, func() {}, nil
	}
	store, err := idempotency.NewRedisStore(ctx, cfg.RedisURL, cfg.IdempotencyTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to Redis: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}
