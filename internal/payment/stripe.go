package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/ukydev/roadside-assist/internal/models"
)

// StripeGateway creates and confirms Stripe PaymentIntents.
type StripeGateway struct {
	newIntent func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripeGateway returns a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{newIntent: sc.PaymentIntents.New}
}

func (g *StripeGateway) Name() string { return "stripe" }

// CreateIntent creates an unconfirmed PaymentIntent whose client secret the
// mobile app uses to collect the card.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64, currency string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := g.newIntent(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return &models.PaymentIntent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// Charge confirms a PaymentIntent with req.Method as the Stripe payment
// method id.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.Method),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("user_id", req.UserID)

	pi, err := g.newIntent(params)
	if err != nil {
		return nil, fmt.Errorf("stripe confirm payment intent: %w", err)
	}
	return &ChargeResult{TransactionID: pi.ID, Status: statusFromStripe(pi.Status)}, nil
}

func statusFromStripe(s stripe.PaymentIntentStatus) models.PaymentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentCompleted
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}

// minorUnits converts a major-unit amount to the integer Stripe expects.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
