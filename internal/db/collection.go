package db

import (
	"context"

	"github.com/ukydev/roadside-assist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ServiceRequestCollection defines the interface for service request storage.
type ServiceRequestCollection interface {
	InsertServiceRequest(ctx context.Context, req *models.ServiceRequest) error
	FindServiceRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	FindServiceRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error)
	UpdateServiceRequestStatus(ctx context.Context, id string, expectedVersion int64, status models.RequestStatus, price *float64) (*models.ServiceRequest, error)
}

// PaymentCollection defines the interface for payment storage.
type PaymentCollection interface {
	InsertPayment(ctx context.Context, payment *models.Payment) error
	FindPaymentByID(ctx context.Context, id string) (*models.Payment, error)
	FindPayments(ctx context.Context, filter bson.M) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string) (*models.Payment, error)
}

// ProfileCollection defines the interface for customer profile storage.
type ProfileCollection interface {
	UpsertProfile(ctx context.Context, input models.UpsertUserInput) (*models.User, error)
	FindProfileBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error)
}

// StaffCollection defines the interface for staff account storage.
type StaffCollection interface {
	InsertStaff(ctx context.Context, staff *models.StaffAccount) error
	FindStaffByUsername(ctx context.Context, username string) (*models.StaffAccount, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// ConfigCollection defines the interface for SystemConfig storage.
type ConfigCollection interface {
	GetConfig(ctx context.Context, key string) (*models.ConfigEntry, error)
	SetConfig(ctx context.Context, key, value string) (*models.ConfigEntry, error)
	ListConfig(ctx context.Context) ([]models.ConfigEntry, error)
}

var (
	_ ServiceRequestCollection = (*MongoServiceRequestCollection)(nil)
	_ PaymentCollection        = (*MongoPaymentCollection)(nil)
	_ ProfileCollection        = (*MongoProfileCollection)(nil)
	_ StaffCollection          = (*MongoStaffCollection)(nil)
	_ ConfigCollection         = (*MongoConfigCollection)(nil)
)
