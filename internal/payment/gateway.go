// Package payment holds the payment gateway collaborators the Payment
// Recorder delegates to.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ukydev/roadside-assist/internal/models"
)

// ChargeRequest is one payment attempt handed to a gateway. Gateways that
// support it must pass IdempotencyKey on so a repeated call never charges
// twice.
type ChargeRequest struct {
	PaymentID      string
	UserID         string
	Amount         float64
	Currency       string
	Method         string
	IdempotencyKey string
}

// ChargeResult is the gateway's answer to a charge. Status stays pending when
// the gateway confirms asynchronously.
type ChargeResult struct {
	TransactionID string
	Status        models.PaymentStatus
}

// Gateway is an external payment processor.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, amount float64, currency string) (*models.PaymentIntent, error)
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// SimulatedGateway accepts every payment immediately. It stands in for a
// real processor in development and demos.
type SimulatedGateway struct{}

// NewSimulatedGateway returns the always-succeeding gateway.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) Name() string { return "simulated" }

// CreateIntent returns a locally generated intent id and client secret.
func (g *SimulatedGateway) CreateIntent(ctx context.Context, amount float64, currency string) (*models.PaymentIntent, error) {
	intentID := "pi_sim_" + uuid.NewString()
	return &models.PaymentIntent{
		IntentID:     intentID,
		ClientSecret: fmt.Sprintf("%s_secret_%s", intentID, uuid.NewString()),
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// Charge marks the payment completed with a generated transaction reference.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{
		TransactionID: "txn_" + uuid.NewString(),
		Status:        models.PaymentCompleted,
	}, nil
}
