package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// IsValidPaymentStatus checks if a payment status is known
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the payment has settled.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// Payment records one payment attempt by a user.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"userId"`
	BookingID     string             `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Method        string             `bson:"method" json:"method"`
	Status        PaymentStatus      `bson:"status" json:"status"`
	TransactionID string             `bson:"transaction_id" json:"transactionId"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CreateIntentInput is the body of POST /payments/intent.
type CreateIntentInput struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,currency"`
}

// ProcessPaymentInput is the body of POST /payments/process.
type ProcessPaymentInput struct {
	UserID    string  `json:"userId" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method"`
	BookingID string  `json:"bookingId,omitempty"`
	Currency  string  `json:"currency,omitempty" validate:"omitempty,currency"`
}

// ConfirmPaymentInput is the body of PATCH /payments/{id}.
type ConfirmPaymentInput struct {
	Status PaymentStatus `json:"status" validate:"required,payment_status"`
}

// PaymentIntent is what the client needs to finish a card payment.
type PaymentIntent struct {
	IntentID     string  `json:"intentId"`
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// ProcessPaymentResult is the response of POST /payments/process.
type ProcessPaymentResult struct {
	Success       bool     `json:"success"`
	TransactionID string   `json:"transactionId"`
	Payment       *Payment `json:"payment"`
}
