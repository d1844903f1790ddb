package handlers

import (
	"context"

	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/services"
)

// RequestService is what the service request endpoints need.
type RequestService interface {
	Create(ctx context.Context, input models.CreateServiceRequestInput) (*models.ServiceRequest, error)
	Get(ctx context.Context, id string) (*models.ServiceRequest, error)
	ListForUser(ctx context.Context, userID string) ([]models.ServiceRequest, error)
	ListAll(ctx context.Context) ([]models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, input models.UpdateStatusInput) (*models.ServiceRequest, error)
}

// PaymentService is what the payment endpoints need.
type PaymentService interface {
	CreateIntent(ctx context.Context, input models.CreateIntentInput) (*models.PaymentIntent, error)
	Process(ctx context.Context, input models.ProcessPaymentInput, idempotencyKey string) (*models.ProcessPaymentResult, error)
	Confirm(ctx context.Context, id string, input models.ConfirmPaymentInput) (*models.Payment, error)
	ListForUser(ctx context.Context, userID string) ([]models.Payment, error)
}

// ProfileService is what the user profile endpoints need.
type ProfileService interface {
	Upsert(ctx context.Context, input models.UpsertUserInput) (*models.User, error)
	Get(ctx context.Context, supabaseID string) (*models.User, error)
}

// ConfigService is what the SystemConfig endpoints need.
type ConfigService interface {
	Entry(ctx context.Context, key string) (*models.ConfigEntry, error)
	Set(ctx context.Context, key string, input models.SetConfigInput) (*models.ConfigEntry, error)
	All(ctx context.Context) ([]models.ConfigEntry, error)
}

var (
	_ RequestService = (*services.RequestManager)(nil)
	_ PaymentService = (*services.PaymentRecorder)(nil)
	_ ProfileService = (*services.ProfileService)(nil)
	_ ConfigService  = (*services.ConfigStore)(nil)
)
